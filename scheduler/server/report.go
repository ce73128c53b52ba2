package server

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/twitter/fanout/common/errors"
	"github.com/twitter/fanout/scheduler/domain"
)

// Summary is the end-of-run report.
type Summary struct {
	Total     int
	Succeeded int
	// Jobs at or above the abandonment ceiling.
	Abandoned int
	// Jobs that failed at least once but are still under the ceiling.
	Failing int
	// Jobs with no counted failure whose last run timed out.
	TimedOut int
	// Jobs that never ran to a result (ex: the run was interrupted).
	NotRun int
	// Jobs whose host history has more than one entry.
	Rebalanced  int
	Passes      []PassResult
	Interrupted bool
	Elapsed     time.Duration
	// Failure count per hostname.
	NodeFailures map[string]int
	// Incomplete jobs, by ID.
	Incomplete []*domain.Job
}

// Summarize reads the final state of the registries.
func Summarize(state *RunState, config SchedulerConfig, passes []PassResult) *Summary {
	s := &Summary{
		Total:        state.Jobs.Len(),
		Succeeded:    state.Completed.Len(),
		Passes:       passes,
		NodeFailures: map[string]int{},
	}
	for _, e := range state.Jobs.Items() {
		job := e.Value
		if job.Rebalanced() {
			s.Rebalanced++
		}
		if job.Completed {
			continue
		}
		switch {
		case job.Failures >= config.AbandonAt:
			s.Abandoned++
		case job.Failures > 0:
			s.Failing++
		case job.Outcome.Kind == domain.TimedOut:
			s.TimedOut++
		default:
			s.NotRun++
		}
		s.Incomplete = append(s.Incomplete, job.Clone())
	}
	sort.Slice(s.Incomplete, func(i, j int) bool { return s.Incomplete[i].ID < s.Incomplete[j].ID })
	for _, e := range state.Nodes.Items() {
		s.NodeFailures[e.Key] = e.Value.Failures
	}
	return s
}

// ExitCode of the process for this run.
func (s *Summary) ExitCode() errors.ExitCode {
	if s.Succeeded == s.Total {
		return errors.SuccessExitCode
	}
	return errors.IncompleteRunExitCode
}

// Write prints the plain-text summary.
func (s *Summary) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Total jobs:       %d\n", s.Total)
	fmt.Fprintf(&b, "Succeeded:        %d\n", s.Succeeded)
	fmt.Fprintf(&b, "Abandoned:        %d\n", s.Abandoned)
	fmt.Fprintf(&b, "Failing:          %d\n", s.Failing)
	if s.TimedOut > 0 {
		fmt.Fprintf(&b, "Timed out:        %d\n", s.TimedOut)
	}
	if s.NotRun > 0 {
		fmt.Fprintf(&b, "Not run:          %d\n", s.NotRun)
	}
	fmt.Fprintf(&b, "Rebalanced:       %d\n", s.Rebalanced)
	fmt.Fprintf(&b, "Passes:           %d\n", len(s.Passes))
	fmt.Fprintf(&b, "Elapsed:          %s\n", s.Elapsed.Round(time.Millisecond))
	if s.Interrupted {
		b.WriteString("Run was interrupted.\n")
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	if len(s.Passes) > 0 {
		fmt.Fprintln(tw, "\nPASS\tJOBS\tSUCCEEDED\tERRORS\tELAPSED")
		for _, p := range s.Passes {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", p.Pass, p.Submitted, p.Outcomes[domain.Succeeded], p.Errors, p.Elapsed.Round(time.Millisecond))
		}
	}
	if len(s.NodeFailures) > 0 {
		hosts := make([]string, 0, len(s.NodeFailures))
		for h := range s.NodeFailures {
			hosts = append(hosts, h)
		}
		sort.Strings(hosts)
		fmt.Fprintln(tw, "\nNODE\tFAILURES")
		for _, h := range hosts {
			fmt.Fprintf(tw, "%s\t%d\n", h, s.NodeFailures[h])
		}
	}
	if len(s.Incomplete) > 0 {
		fmt.Fprintln(tw, "\nJOB\tTARGET\tHOSTS\tFAILURES\tLAST")
		for _, j := range s.Incomplete {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", j.ID, j.Command.Target, strings.Join(j.Hosts, ","), j.Failures, j.Outcome)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b.WriteString(strings.Repeat("=", 60) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Dump writes every field of the summary, for debugging.
func (s *Summary) Dump(w io.Writer) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	cfg.Fdump(w, s)
}
