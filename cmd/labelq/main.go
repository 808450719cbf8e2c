package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"labelq/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "labelq:", err)
		}
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error class to a process exit status.
func exitCode(err error) int {
	switch services.Kind(err) {
	case "ok":
		return 0
	case "validation", "not_found":
		return 2
	case "unavailable":
		return 3
	case "integrity":
		return 4
	default:
		return 1
	}
}
