package local

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/cloud/cluster"
	"github.com/twitter/fanout/common/os/exec"
)

const DefaultFetchTimeout = 30 * time.Second

// MakeCommandFetcher returns a Fetcher that runs a discovery command (ex: a ping
// sweep or an inventory query) and reads one node per line of its stdout.
//
// If regexCapture is non-empty, only lines it matches are used and the node is
// taken from its first capture group (or the whole match if it has none).
// Blank lines and lines starting with '#' are skipped.
func MakeCommandFetcher(command, regexCapture string, timeout time.Duration) (cluster.Fetcher, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid discovery command %q", command)
	}
	if len(args) == 0 {
		return nil, errors.New("empty discovery command")
	}
	var re *regexp.Regexp
	if regexCapture != "" {
		if re, err = regexp.Compile(regexCapture); err != nil {
			return nil, errors.Wrapf(err, "invalid discovery regex %q", regexCapture)
		}
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &commandFetcher{args: args, re: re, timeout: timeout, ex: exec.NewOsExec()}, nil
}

type commandFetcher struct {
	args    []string
	re      *regexp.Regexp
	timeout time.Duration
	ex      exec.OsExec
}

func (f *commandFetcher) Fetch() ([]cluster.Node, error) {
	data, err := f.fetchData()
	if err != nil {
		return nil, err
	}
	return parseData(data, f.re), nil
}

func (f *commandFetcher) fetchData() ([]byte, error) {
	cmd := f.ex.Command(f.args[0], f.args[1:]...)
	rr := exec.RunKillableCommand(cmd, nil, time.Second, nil, f.timeout)
	if rr.Error != nil {
		log.WithFields(log.Fields{
			"command": strings.Join(f.args, " "),
			"stderr":  string(rr.Stderr),
			"err":     rr.Error,
		}).Error("discovery command failed")
		return nil, errors.Wrap(rr.Error, fmt.Sprintf("discovery command %q", strings.Join(f.args, " ")))
	}
	return rr.Stdout, nil
}

func parseData(data []byte, re *regexp.Regexp) []cluster.Node {
	nodes := []cluster.Node{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if re == nil {
			nodes = append(nodes, cluster.NewIdNode(strings.Fields(line)[0]))
			continue
		}
		matches := re.FindStringSubmatch(line)
		switch {
		case len(matches) >= 2 && matches[1] != "":
			nodes = append(nodes, cluster.NewIdStatusNode(matches[1], line))
		case len(matches) == 1:
			nodes = append(nodes, cluster.NewIdStatusNode(matches[0], line))
		}
	}
	return nodes
}
