package server

import (
	"github.com/twitter/fanout/registry"
	"github.com/twitter/fanout/scheduler/domain"
)

// RunState is everything a run shares between the driver and the workers of a
// pass. It is created once per run and passed explicitly.
type RunState struct {
	// All jobs of the run, keyed by job ID.
	Jobs *registry.Registry[int, *domain.Job]
	// Nodes known at the start of the run, keyed by hostname.
	Nodes *registry.Registry[string, domain.Node]
	// Copies of jobs that succeeded, for reporting.
	Completed *registry.Registry[int, *domain.Job]
}

func NewRunState() *RunState {
	return &RunState{
		Jobs:      registry.New[int, *domain.Job](),
		Nodes:     registry.New[string, domain.Node](),
		Completed: registry.New[int, *domain.Job](),
	}
}

func (s *RunState) AddNodes(hosts ...string) {
	for _, h := range hosts {
		s.Nodes.Add(h, domain.NewNode(h))
	}
}

func (s *RunState) AddJobs(jobs ...*domain.Job) {
	for _, j := range jobs {
		s.Jobs.Add(j.ID, j)
	}
}

// Done reports whether every job has completed.
func (s *RunState) Done() bool {
	return s.Completed.Len() == s.Jobs.Len()
}
