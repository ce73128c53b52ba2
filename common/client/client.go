// Package client holds what fanout subcommands share: the cobra root command
// and the interface each subcommand implements.
package client

import (
	"io"

	"github.com/spf13/cobra"
)

// Client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// SimpleClient includes base fields required for implementing client
type SimpleClient struct {
	RootCmd  *cobra.Command
	LogLevel string
	// Human-readable command output (summaries, dry runs) goes here.
	Out io.Writer
}

// Command interface used to run client commands
type Cmd interface {
	RegisterFlags() *cobra.Command
	Run(cl *SimpleClient, cmd *cobra.Command, args []string) error
}
