package exec

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	outputExitScript = `
echo "stdout line"
echo "stderr line" 1>&2
exit 3`
	trapScript = `
trap ':' TERM
while :
do sleep 1
done`
)

func TestUnrunnableCommand(t *testing.T) {
	cmd := NewOsExec().Command("sjkldoeiujeiuc")
	rr := RunKillableCommand(cmd, nil, 0, io.Discard, 0)
	assert.NotNil(t, rr.Error)
	assert.Nil(t, rr.ProcessState)
	assert.Equal(t, -1, ExitCode(rr.ProcessState))
}

func TestRunKillableCommandOutput(t *testing.T) {
	tf := setupTempScript(t, outputExitScript)

	var stream bytes.Buffer
	cmd := NewOsExec().Command("/bin/sh", tf)
	rr := RunKillableCommand(cmd, nil, 0, &stream, 0)

	var exitErr interface{ ExitCode() int }
	assert.True(t, errors.As(rr.Error, &exitErr))
	assert.False(t, rr.TimedOut())
	assert.Equal(t, 3, ExitCode(rr.ProcessState))
	assert.Contains(t, string(rr.Stdout), "stdout line")
	assert.Contains(t, string(rr.Stderr), "stderr line")
	assert.Contains(t, stream.String(), "stdout line")
	assert.Contains(t, stream.String(), "stderr line")
	assert.Contains(t, stream.String(), "Exited - ExitCode: 3")
}

func TestRunKillableCommandSuccess(t *testing.T) {
	rr := RunKillableCommand(NewOsExec().Command("true"), nil, 0, nil, 0)
	assert.Nil(t, rr.Error)
	assert.Equal(t, 0, ExitCode(rr.ProcessState))
}

func TestCommandTimeout(t *testing.T) {
	cmd := NewOsExec().Command("sleep", "5")
	start := time.Now()
	rr := RunKillableCommand(cmd, nil, time.Second, io.Discard, 200*time.Millisecond)
	assert.True(t, time.Since(start) < 2*time.Second)
	assert.True(t, rr.TimedOut())
	assert.Equal(t, -1, ExitCode(rr.ProcessState))
}

func TestRunKillableCommandKill(t *testing.T) {
	tf := setupTempScript(t, trapScript)

	killCh := make(chan struct{})
	go func() {
		// give the script time to install its trap so SIGTERM is ignored
		time.Sleep(500 * time.Millisecond)
		close(killCh)
	}()

	cmd := NewOsExec().Command("/bin/sh", tf)
	rr := RunKillableCommand(cmd, killCh, 100*time.Millisecond, io.Discard, 0)
	assert.True(t, errors.Is(rr.Error, KilledError))
	assert.False(t, rr.ProcessState.Exited())
	assert.Equal(t, -1, ExitCode(rr.ProcessState))
}

func TestTruncateCmd(t *testing.T) {
	assert.Equal(t, "hello", truncateCmd(NewOsExec().Command("hello")))
	assert.Equal(t, "hello world", truncateCmd(NewOsExec().Command("/foo/bar/hello", "world")))
}

func setupTempScript(t *testing.T, contents string) string {
	tf, err := os.CreateTemp("", "script")
	if err != nil {
		t.Fatalf("failed setting up temp script file: %s", err)
	}
	t.Cleanup(func() { os.Remove(tf.Name()) })
	if _, err := tf.Write([]byte(contents)); err != nil {
		t.Fatalf("failed writing temp script file: %s", err)
	}
	if err := tf.Close(); err != nil {
		t.Fatalf("failed closing temp script file: %s", err)
	}
	return tf.Name()
}
