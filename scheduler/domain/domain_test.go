package domain

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestComposeCommand(t *testing.T) {
	cmd := Command{
		Transport: "ssh -o BatchMode=yes",
		Prefix:    "cd /src &&",
		Runner:    "python{version} -m pytest",
		Version:   "3.11",
		Args:      []string{"-x", ""},
		Target:    "tests/test_api.py",
	}
	assert.Equal(t, "ssh -o BatchMode=yes host1 cd /src && python3.11 -m pytest -x tests/test_api.py", cmd.Compose("host1"))

	local := Command{Runner: "pytest", Target: "tests/test a.py"}
	assert.Equal(t, "pytest 'tests/test a.py'", local.Compose("ignored"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "plain", quote("plain"))
	assert.Equal(t, `'it'\''s'`, quote("it's"))
	assert.Equal(t, "'a;b'", quote("a;b"))
}

func TestJobHostHistory(t *testing.T) {
	j := NewJob(1, "a", Command{Transport: "ssh", Runner: "pytest", Target: "t.py"})
	assert.Equal(t, "a", j.ActiveHost())
	assert.False(t, j.Rebalanced())
	assert.Equal(t, "ssh a pytest t.py", j.GetCommand())

	j.AddHost("b")
	assert.Equal(t, "b", j.ActiveHost())
	assert.Equal(t, []string{"a", "b"}, j.Hosts)
	assert.True(t, j.Rebalanced())
	assert.Equal(t, "ssh b pytest t.py", j.GetCommand())
}

func TestCloneIsDeep(t *testing.T) {
	j := NewJob(3, "a", Command{Runner: "pytest", Args: []string{"-q"}, Target: "t.py"})
	c := j.Clone()
	j.AddHost("b")
	j.Command.Args[0] = "-v"
	assert.Equal(t, []string{"a"}, c.Hosts)
	assert.Equal(t, []string{"-q"}, c.Command.Args)
}

func TestCompletion(t *testing.T) {
	j := NewJob(2, "a", Command{})
	j.Record(RetryableOutcome(RCTestsFailed), time.Second)
	assert.Equal(t, 1, j.RC)
	assert.False(t, j.Completed)

	j.MarkCompleted(2 * time.Second)
	assert.True(t, j.Completed)
	assert.Equal(t, RCSuccess, j.RC)
	assert.Equal(t, 2*time.Second, j.Elapsed)
	assert.False(t, j.Abandoned(0))
}

func TestOutcomeRC(t *testing.T) {
	assert.Equal(t, 0, SucceededOutcome().RC())
	assert.Equal(t, 4, RetryableOutcome(4).RC())
	assert.Equal(t, 7, RebalancedOutcome().RC())
	assert.Equal(t, 8, AbandonedOutcome().RC())
	assert.Equal(t, 9, TimedOutOutcome().RC())
	assert.True(t, AbandonedOutcome().Terminal())
	assert.False(t, TimedOutOutcome().Terminal())
	assert.Equal(t, "retryable(rc=1: some tests failed)", RetryableOutcome(1).String())
}

func Test_FailuresMonotonic(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("AddFailure never decreases the failure count", prop.ForAll(
		func(n int) bool {
			j := NewJob(0, "h", Command{})
			prev := j.Failures
			for i := 0; i < n; i++ {
				if j.AddFailure() < prev {
					return false
				}
				prev = j.Failures
			}
			return j.Failures == n
		},
		gen.IntRange(0, 50),
	))
	properties.TestingRun(t)
}
