// Package setup turns build-time inputs into the registries a run starts from:
// the test list becomes jobs assigned round robin over the discovered nodes.
package setup

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/scheduler/domain"
	"github.com/twitter/fanout/scheduler/server"
)

var ErrNoTests = errors.New("test list is empty")

// ReadTestList reads one test identifier per line. Blank lines and lines
// starting with '#' are ignored, as is a trailing comment: a '#' preceded by
// whitespace and everything after it. A '#' inside an identifier, ex:
// "test_x.py::test[#1]", is kept. Duplicates are dropped, keeping the first
// occurrence.
func ReadTestList(r io.Reader) ([]string, error) {
	seen := map[string]bool{}
	tests := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		tests = append(tests, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading test list")
	}
	return tests, nil
}

func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}

// ReadTestListFile reads the test list at path, or stdin if path is "-".
func ReadTestListFile(path string) ([]string, error) {
	if path == "-" {
		return ReadTestList(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening test list %s", path)
	}
	defer f.Close()
	return ReadTestList(f)
}

// BuildJobs creates one job per test, assigning hosts round robin in order.
// Job IDs are the test's index in the list.
func BuildJobs(tests, hosts []string, cmd domain.Command) ([]*domain.Job, error) {
	if len(tests) == 0 {
		return nil, ErrNoTests
	}
	if len(hosts) == 0 {
		return nil, cluster.ErrNoNodes
	}
	jobs := make([]*domain.Job, 0, len(tests))
	for i, t := range tests {
		jobs = append(jobs, domain.NewJob(i, hosts[i%len(hosts)], cmd.WithTarget(t)))
	}
	return jobs, nil
}

// DiscoverNodes fetches the reachable nodes once and returns their hostnames, sorted.
func DiscoverNodes(fetcher cluster.Fetcher) ([]string, error) {
	nodes, err := fetcher.Fetch()
	if err != nil {
		return nil, errors.Wrap(err, "discovering nodes")
	}
	hosts := cluster.Hostnames(nodes)
	if len(hosts) == 0 {
		return nil, cluster.ErrNoNodes
	}
	log.WithFields(log.Fields{
		"nodes": len(hosts),
		"hosts": strings.Join(hosts, ","),
	}).Info("discovered nodes")
	return hosts, nil
}

// NewRunState discovers nodes and builds the job, node and completed registries.
func NewRunState(fetcher cluster.Fetcher, tests []string, cmd domain.Command) (*server.RunState, error) {
	hosts, err := DiscoverNodes(fetcher)
	if err != nil {
		return nil, err
	}
	jobs, err := BuildJobs(tests, hosts, cmd)
	if err != nil {
		return nil, err
	}
	state := server.NewRunState()
	state.AddNodes(hosts...)
	state.AddJobs(jobs...)
	return state, nil
}
