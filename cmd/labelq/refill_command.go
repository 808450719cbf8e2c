package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"labelq/internal/config"
	"labelq/internal/fill"
	"labelq/internal/logging"
	"labelq/internal/metrics"
	"labelq/internal/services"
)

func newRefillCommand(ctx *commandContext) *cobra.Command {
	var (
		interval time.Duration
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "refill PROJECT",
		Short: "Keep a project's queues topped up",
		Long: `Fill every queue of a project, then repeat at --interval until interrupted.
The loop requires the etcd fast queue backend; with the memory backend only
--once is accepted. When metrics.bind is configured the Prometheus endpoint is served for the
lifetime of the loop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := resolveProject(c, rt.store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				report := func(results []fill.Result, err error) {
					if err != nil {
						return
					}
					added := 0
					for _, r := range results {
						added += r.Inserted
					}
					fmt.Fprintf(out, "%s  %s: %d queue(s), %d added\n",
						time.Now().Format(time.TimeOnly), project.Name, len(results), added)
				}

				if once {
					results, err := rt.filler.FillProject(c, project.ID)
					if err != nil {
						return fmt.Errorf("refill: %w", err)
					}
					for _, r := range results {
						fmt.Fprintln(out, describeFill(r))
					}
					return nil
				}

				// Entries pushed to a memory fast queue are only reachable from
				// this process, and nothing here pops them.
				if rt.cfg.FastQueue.Backend == config.BackendMemory {
					return services.Wrap(services.ErrValidation, "refill", "loop",
						"continuous refill needs fast_queue.backend = \"etcd\"; use --once with the memory backend", nil)
				}

				group, groupCtx := errgroup.WithContext(c)
				if bind := strings.TrimSpace(rt.cfg.Metrics.Bind); bind != "" {
					ln, err := net.Listen("tcp", bind)
					if err != nil {
						return fmt.Errorf("listen on metrics bind %s: %w", bind, err)
					}
					rt.logger.Info("serving metrics",
						logging.String("address", ln.Addr().String()),
						logging.String(logging.FieldEventType, "metrics_listen"),
					)
					group.Go(func() error {
						return metrics.Serve(groupCtx, ln, metrics.NewRegistry())
					})
				}
				group.Go(func() error {
					return rt.filler.RunLoop(groupCtx, project.ID, interval, report)
				})
				if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Time between refill passes")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single pass and exit")
	return cmd
}
