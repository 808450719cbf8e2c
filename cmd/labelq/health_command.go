package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"labelq/internal/config"
	"labelq/internal/fastqueue"
	"labelq/internal/fill"
	"labelq/internal/logging"
	"labelq/internal/preflight"
	"labelq/internal/store"
)

var errUnhealthy = errors.New("one or more health checks failed")

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check storage, fast queue and queue consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c := cmd.Context()
			if c == nil {
				c = context.Background()
			}

			// Open failures are reported by the checks themselves.
			var db preflight.Database
			st, err := store.Open(cfg)
			if err == nil {
				defer st.Close()
				db = st
			}
			fast, err := fastqueue.Open(c, cfg)
			if err == nil {
				defer fast.Close()
			}
			// A memory fast queue only exists in this process; load it so the
			// consistency check compares like with like.
			if st != nil && fast != nil && cfg.FastQueue.Backend == config.BackendMemory {
				if _, err := fill.NewFromConfig(cfg, st, fast, logging.NewNop()).Rebuild(c); err != nil {
					return fmt.Errorf("rebuild memory fast queue: %w", err)
				}
			}

			results := preflight.RunAll(c, cfg, db, fast)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("labelq health", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if preflight.Failed(results) {
				return errUnhealthy
			}
			return nil
		},
	}
}
