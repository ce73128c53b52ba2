// Package hooks provides logrus hooks shared by fanout binaries.
package hooks

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextHook struct {
	levels []logrus.Level
}

// NewContextHook returns a hook that tags entries at the given levels (all
// levels if none are given) with the "file:line" of the logging call site.
func NewContextHook(levels ...logrus.Level) logrus.Hook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}
	return contextHook{levels: levels}
}

func (hook contextHook) Levels() []logrus.Level {
	return hook.levels
}

func (hook contextHook) Fire(entry *logrus.Entry) error {
	if loc := callSite(); loc != "" {
		entry.Data["file:line"] = loc
	}
	return nil
}

// callSite returns the first frame outside logrus and this package, trimmed to
// its path inside the module.
func callSite() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "sirupsen/logrus") &&
			!strings.HasSuffix(frame.File, "hooks/context_hook.go") {
			file := frame.File
			if idx := strings.LastIndex(file, "fanout/"); idx >= 0 {
				file = file[idx+len("fanout/"):]
			}
			return fmt.Sprintf("%s:%d", file, frame.Line)
		}
		if !more {
			return ""
		}
	}
}
