package server

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/common/stats"
	"github.com/twitter/fanout/scheduler/domain"
)

// NoAlternateHostError is returned when every reachable node is already in a
// job's host history.
type NoAlternateHostError struct {
	JobID int
	Tried []string
}

func (e *NoAlternateHostError) Error() string {
	return fmt.Sprintf("no alternate host for job %d, already tried %v", e.JobID, e.Tried)
}

// Rebalancer moves a job to a reachable host it has not run on before.
type Rebalancer struct {
	fetcher cluster.Fetcher
	policy  RebalancePolicy
	stat    stats.StatsReceiver

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRebalancer(fetcher cluster.Fetcher, policy RebalancePolicy, stat stats.StatsReceiver) *Rebalancer {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	if policy == "" {
		policy = RebalanceFirst
	}
	return &Rebalancer{
		fetcher: fetcher,
		policy:  policy,
		stat:    stat,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Rebalance fetches the currently reachable nodes, removes the job's whole host
// history, and appends one of the remaining hosts to the job. Returns the new
// active host.
func (r *Rebalancer) Rebalance(job *domain.Job) (string, error) {
	defer r.stat.Precision(time.Millisecond).Latency(stats.RebalanceLatency_ms).Time().Stop()
	r.stat.Counter(stats.RebalanceFetchCounter).Inc(1)
	nodes, err := r.fetcher.Fetch()
	if err != nil {
		return "", errors.Wrapf(err, "fetching nodes to rebalance job %d", job.ID)
	}

	candidates := unusedHosts(cluster.Hostnames(nodes), job.Hosts)
	if len(candidates) == 0 {
		r.stat.Counter(stats.RebalanceNoHostCounter).Inc(1)
		return "", &NoAlternateHostError{JobID: job.ID, Tried: append([]string(nil), job.Hosts...)}
	}

	host := r.pick(candidates)
	from := job.ActiveHost()
	job.AddHost(host)
	log.WithFields(log.Fields{
		"jobID":      job.ID,
		"from":       from,
		"to":         host,
		"candidates": len(candidates),
		"policy":     r.policy,
	}).Info("rebalanced job")
	return host, nil
}

func (r *Rebalancer) pick(candidates []string) string {
	if r.policy != RebalanceRandom {
		return candidates[0]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return candidates[r.rnd.Intn(len(candidates))]
}

// unusedHosts returns the sorted members of reachable not present in used.
func unusedHosts(reachable, used []string) []string {
	seen := make(map[string]bool, len(used))
	for _, h := range used {
		seen[h] = true
	}
	result := []string{}
	for _, h := range reachable {
		if !seen[h] {
			seen[h] = true
			result = append(result, h)
		}
	}
	sort.Strings(result)
	return result
}
