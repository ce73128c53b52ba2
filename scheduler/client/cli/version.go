package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/twitter/fanout/common/client"
)

// Set at build time with -ldflags "-X github.com/twitter/fanout/scheduler/client/cli.Version=..."
var Version = "dev"

type versionCmd struct{}

func (c *versionCmd) RegisterFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fanout version",
	}
}

func (c *versionCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintf(cl.Out, "fanout %s (%s)\n", Version, runtime.Version())
	return err
}
