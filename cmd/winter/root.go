package main

import (
	"github.com/spf13/cobra"
)

const skipConfigLoad = "skipConfigLoad"

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "winter",
		Short:         "Fast command runner for the spring preloader",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.HasParent() || shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		// Unknown commands are not an error: show the command list.
		RunE: func(cmd *cobra.Command, args []string) error {
			printHelp(cmd.OutOrStdout())
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Unknown flags on an unknown command still end at the help screen.
	rootCmd.FParseErrWhitelist.UnknownFlags = true

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == rootCmd {
			printHelp(cmd.OutOrStdout())
			return
		}
		defaultHelp(cmd, args)
	})
	rootCmd.SetHelpCommand(newHelpCommand())

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	for _, cmd := range newForwardCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}
