package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.FanOutFactor)
	assert.Equal(t, 3, cfg.RebalanceAt)
	assert.Equal(t, 6, cfg.AbandonAt)
	assert.Contains(t, cfg.String(), "RebalancePolicy: first")
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*SchedulerConfig){
		"fanOut":    func(c *SchedulerConfig) { c.FanOutFactor = 0 },
		"rebalance": func(c *SchedulerConfig) { c.RebalanceAt = 0 },
		"abandon":   func(c *SchedulerConfig) { c.AbandonAt = c.RebalanceAt },
		"timeout":   func(c *SchedulerConfig) { c.CommandTimeout = -1 },
		"passes":    func(c *SchedulerConfig) { c.MaxPasses = 0 },
		"lock":      func(c *SchedulerConfig) { c.LockTimeout = -1 },
		"rate":      func(c *SchedulerConfig) { c.StartRate = -1 },
		"policy":    func(c *SchedulerConfig) { c.RebalancePolicy = "roundrobin" },
	} {
		cfg := DefaultSchedulerConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
