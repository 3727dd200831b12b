package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"winter/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current status",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st := daemonctl.Snapshot(cfg.Layout())

			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderStatusLine(st, shouldColorize(stdout)))
			if verbose {
				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, renderStatusTable(st))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show resolved paths and process details")
	return cmd
}
