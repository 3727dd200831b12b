package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"winter/internal/spring"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

func execute(ctx context.Context, args []string) error {
	cmdCtx := newCommandContext()
	cmdCtx.rawArgs = args
	cmd := newRootCommand(cmdCtx)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// exitCode maps protocol failures onto their own statuses so scripts can
// tell a missing daemon from a version mismatch. Everything else is 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return spring.ExitCode(err)
}
