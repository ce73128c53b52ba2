package executor

import (
	"context"
	"strings"
	"sync"
	"time"
)

// FakeExecutor returns scripted results without running anything. Results are
// chosen by the first registered key that is a substring of the command, so a
// key can be a host, a test target, or both.
type FakeExecutor struct {
	mu      sync.Mutex
	scripts map[string]*script
	keys    []string
	// Result for commands no key matches. Defaults to rc 0.
	Default Result
	// Commands in the order they were executed.
	commands []string
}

type script struct {
	results []Result
	next    int
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{scripts: map[string]*script{}}
}

// Script registers results for commands containing key. Each execution consumes
// the next result; the last one repeats once the list is exhausted.
func (f *FakeExecutor) Script(key string, results ...Result) *FakeExecutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.scripts[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.scripts[key] = &script{results: results}
	return f
}

// ScriptRCs is Script for plain exit codes.
func (f *FakeExecutor) ScriptRCs(key string, rcs ...int) *FakeExecutor {
	results := make([]Result, len(rcs))
	for i, rc := range rcs {
		results[i] = Result{RC: rc}
	}
	return f.Script(key, results...)
}

func (f *FakeExecutor) Execute(ctx context.Context, command string, timeout time.Duration) Result {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	res := f.Default
	for _, key := range f.keys {
		if !strings.Contains(command, key) {
			continue
		}
		s := f.scripts[key]
		if len(s.results) > 0 {
			res = s.results[s.next]
			if s.next < len(s.results)-1 {
				s.next++
			}
		}
		break
	}
	f.mu.Unlock()

	if res.TimedOut && timeout > 0 {
		select {
		case <-time.After(timeout):
		case <-ctx.Done():
		}
	}
	return res
}

func (f *FakeExecutor) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Count returns how many executed commands contain substr.
func (f *FakeExecutor) Count(substr string) int {
	n := 0
	for _, c := range f.Commands() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

var _ Executor = (*FakeExecutor)(nil)
