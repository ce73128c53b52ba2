package cli

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/fanout/common/client"
	"github.com/twitter/fanout/common/errors"
	"github.com/twitter/fanout/common/log/hooks"
)

// FanoutCLIClient includes fields required for CLI client handling
type FanoutCLIClient struct {
	commoncli.SimpleClient
}

func (c *FanoutCLIClient) Exec() error {
	return c.RootCmd.Execute()
}

// NewCLIClient returns the fanout command line. Command output is written to out.
func NewCLIClient(out io.Writer) commoncli.CLIClient {
	if out == nil {
		out = os.Stdout
	}
	c := &FanoutCLIClient{}
	c.Out = out

	c.RootCmd = &cobra.Command{
		Use:               "fanout",
		Short:             "fanout runs a test suite spread over a pool of machines",
		PersistentPreRunE: c.Init,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	c.RootCmd.SetOut(out)
	c.RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewError(err, errors.UsageExitCode)
	})
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")

	c.addCmd(&runCmd{})
	c.addCmd(&versionCmd{})
	return c
}

// Can only be called from cobra command run or hook
func (c *FanoutCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return errors.NewError(err, errors.UsageExitCode)
	}
	log.SetLevel(level)
	if level >= log.DebugLevel {
		log.AddHook(hooks.NewContextHook())
	}
	return nil
}

func (c *FanoutCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}
