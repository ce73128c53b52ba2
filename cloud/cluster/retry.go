package cluster

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/stats"
)

// RetryConfig bounds how hard discovery is retried before giving up.
// MaxRetries of 0 means a single attempt.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration // total time spent retrying, DefaultRetryConfig's if <= 0
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	MaxElapsedTime:  time.Minute,
}

// NewRetryingFetcher wraps f so that errors and empty results are retried with
// exponential backoff. The last error is returned once retries run out or ctx
// is done.
func NewRetryingFetcher(ctx context.Context, f Fetcher, cfg RetryConfig, stat stats.StatsReceiver) Fetcher {
	if ctx == nil {
		ctx = context.Background()
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	return &retryingFetcher{ctx: ctx, fetcher: f, cfg: cfg, stat: stat}
}

type retryingFetcher struct {
	ctx     context.Context
	fetcher Fetcher
	cfg     RetryConfig
	stat    stats.StatsReceiver
}

func (r *retryingFetcher) newBackOff() backoff.BackOff {
	if r.cfg.MaxRetries == 0 {
		// WithMaxRetries treats 0 as unlimited.
		return backoff.WithContext(&backoff.StopBackOff{}, r.ctx)
	}
	b := backoff.NewExponentialBackOff()
	if r.cfg.InitialInterval > 0 {
		b.InitialInterval = r.cfg.InitialInterval
	}
	if r.cfg.MaxInterval > 0 {
		b.MaxInterval = r.cfg.MaxInterval
	}
	b.MaxElapsedTime = r.cfg.MaxElapsedTime
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = DefaultRetryConfig.MaxElapsedTime
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.MaxRetries), r.ctx)
}

func (r *retryingFetcher) Fetch() ([]Node, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	var nodes []Node
	attempt := 0
	op := func() error {
		attempt++
		r.stat.Counter(stats.DiscoveryFetchCounter).Inc(1)
		var err error
		nodes, err = r.fetcher.Fetch()
		if err == nil && len(Hostnames(nodes)) == 0 {
			err = ErrNoNodes
		}
		if err != nil {
			r.stat.Counter(stats.DiscoveryFetchErrCounter).Inc(1)
			log.WithFields(log.Fields{
				"attempt": attempt,
				"err":     err,
			}).Warn("node discovery failed")
		}
		return err
	}
	if err := backoff.Retry(op, r.newBackOff()); err != nil {
		return nil, err
	}
	return nodes, nil
}
