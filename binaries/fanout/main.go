package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/fanout/common/errors"
	"github.com/twitter/fanout/scheduler/client/cli"
)

// fanout runs a test suite across a pool of machines. See 'fanout run --help'.
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	err := cli.NewCLIClient(os.Stdout).Exec()
	if err != nil {
		log.Error(err)
	}
	os.Exit(int(errors.ExitCodeOf(err)))
}
