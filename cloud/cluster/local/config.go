package local

import (
	"time"

	"github.com/twitter/fanout/cloud/cluster"
)

// ClusterLocalConfig discovers nodes by running a local command.
type ClusterLocalConfig struct {
	Command      string
	RegexCapture string
	Timeout      time.Duration
}

func (c *ClusterLocalConfig) Create() (cluster.Fetcher, error) {
	return MakeCommandFetcher(c.Command, c.RegexCapture, c.Timeout)
}
