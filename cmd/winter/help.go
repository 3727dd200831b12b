package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const helpText = `Usage: winter COMMAND [ARGS]

Commands for winter itself:

  help            Print available commands.
  status          Show current status.

Commands for your application:

  cucumber        Execute a Cucumber feature.
  rails           Run a rails command. The following sub commands will use spring: console, runner, generate.
  rake            Run a rake task.
  rspec           Execute an RSpec spec.
  testunit        Execute a Test::Unit test.
`

func printHelp(w io.Writer) {
	fmt.Fprint(w, helpText)
}

func newHelpCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "help",
		Short:       "Print available commands",
		Args:        cobra.ArbitraryArgs,
		Annotations: map[string]string{skipConfigLoad: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			printHelp(cmd.OutOrStdout())
		},
	}
}
