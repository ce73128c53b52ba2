package domain

import (
	"strings"
)

// Command holds the parts a job invocation is composed from. All jobs of a run
// share everything except Target.
type Command struct {
	// Transport used to reach the host, ex: "ssh -o BatchMode=yes".
	// When empty the command runs locally and the host is not part of it.
	Transport string
	// Shell fragment run on the host before the runner, ex: "cd /src &&".
	Prefix string
	// Remote runner executable. "{version}" is replaced by Version.
	Runner  string
	Version string
	Args    []string
	// Test identifier or file handed to the runner.
	Target string
}

// Compose renders the command for the given host, skipping empty parts.
func (c Command) Compose(host string) string {
	parts := []string{}
	if c.Transport != "" {
		parts = append(parts, c.Transport, host)
	}
	if c.Prefix != "" {
		parts = append(parts, c.Prefix)
	}
	if r := c.RunnerName(); r != "" {
		parts = append(parts, r)
	}
	for _, a := range c.Args {
		if a != "" {
			parts = append(parts, quote(a))
		}
	}
	if c.Target != "" {
		parts = append(parts, quote(c.Target))
	}
	return strings.Join(parts, " ")
}

func (c Command) RunnerName() string {
	return strings.Replace(c.Runner, "{version}", c.Version, -1)
}

// WithTarget returns a copy of c targeting the given test.
func (c Command) WithTarget(target string) Command {
	c.Args = append([]string(nil), c.Args...)
	c.Target = target
	return c
}

// Single-quote arguments a shell would otherwise split or expand.
func quote(s string) string {
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?&;|<>()") {
		return s
	}
	return "'" + strings.Replace(s, "'", `'\''`, -1) + "'"
}
