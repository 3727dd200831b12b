package main

import (
	"github.com/spf13/cobra"

	"winter/internal/wire"
)

type forwardSpec struct {
	name  string
	short string
}

var forwardSpecs = []forwardSpec{
	{name: "cucumber", short: "Execute a Cucumber feature"},
	{name: "rails", short: "Run a rails command (console, runner and generate use spring)"},
	{name: "rake", short: "Run a rake task"},
	{name: "rspec", short: "Execute an RSpec spec"},
	{name: "testunit", short: "Execute a Test::Unit test"},
}

func newForwardCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(forwardSpecs))
	for _, spec := range forwardSpecs {
		cmds = append(cmds, newForwardCommand(ctx, spec))
	}
	return cmds
}

func newForwardCommand(ctx *commandContext, spec forwardSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.name + " [ARGS]...",
		Short: spec.short,
		// Every argument belongs to the application, --help included.
		DisableFlagParsing: true,
		Annotations:        map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if leading, rest, ok := splitInvocation(ctx.rawArgs, spec.name); ok {
				if err := cmd.Root().PersistentFlags().Parse(leading); err != nil {
					return err
				}
				args = rest
			}
			return ctx.runCommand(cmd.Context(), buildRequest(spec.name, args))
		},
	}
}

// buildRequest maps "rails <sub> args..." onto the daemon's rails_<sub>
// command; every other command is sent as named.
func buildRequest(name string, args []string) wire.CommandRequest {
	if name == "rails" && len(args) > 0 {
		return wire.CommandRequest{Name: "rails_" + args[0], Args: args[1:]}
	}
	return wire.CommandRequest{Name: name, Args: args}
}
