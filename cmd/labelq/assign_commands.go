package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"labelq/internal/store"
)

func newAssignCommand(ctx *commandContext) *cobra.Command {
	var (
		user   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "assign PROJECT",
		Short: "Hand out the next datum from a project's queues",
		Long: `Pop one datum for a user, preferring the user's own queues over the
project's shared queues. Without --user only shared queues are considered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := resolveProject(c, rt.store, args[0])
				if err != nil {
					return err
				}
				userID, err := resolveUserID(c, rt.store, user)
				if err != nil {
					return err
				}
				datum, err := rt.coord.Assign(c, project.ID, userID)
				if err != nil {
					return fmt.Errorf("assign: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, datum)
				}
				out := cmd.OutOrStdout()
				if datum == nil {
					msg, err := noWorkMessage(c, rt.store, project, userID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, msg)
					return nil
				}
				fmt.Fprintf(out, "Assigned data #%d: %s\n", datum.ID, datum.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Username or id requesting work")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// noWorkMessage explains an empty assignment. Durable membership left over
// for the requester means the fast queue is behind the database.
func noWorkMessage(ctx context.Context, st *store.Store, project *store.Project, userID int64) (string, error) {
	empty, err := st.IsEmptyFor(ctx, project.ID, userID)
	if err != nil {
		return "", err
	}
	if empty {
		return fmt.Sprintf("No work available in %s", project.Name), nil
	}
	return fmt.Sprintf("No work available in %s, but the database still lists queued data; run 'labelq fastqueue rebuild'", project.Name), nil
}

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var user, label string
	cmd := &cobra.Command{
		Use:   "label DATA_ID",
		Short: "Record a label and complete the assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataID, err := parseID("data", args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(user) == "" {
				return errors.New("--user is required")
			}
			if strings.TrimSpace(label) == "" {
				return errors.New("--label is required")
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				userID, err := resolveUserID(c, rt.store, user)
				if err != nil {
					return err
				}
				recorded, err := rt.store.RecordLabel(c, dataID, userID, label)
				if err != nil {
					return fmt.Errorf("record label: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Labeled data #%d as %q\n", recorded.DataID, recorded.Label)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Username or id of the labeler")
	cmd.Flags().StringVar(&label, "label", "", "Label text")
	return cmd
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release DATA_ID",
		Short: "Drop an assignment so the datum becomes eligible again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataID, err := parseID("data", args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				if err := rt.store.ReleaseAssignment(c, dataID); err != nil {
					return fmt.Errorf("release: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Released data #%d\n", dataID)
				return nil
			})
		},
	}
}

func newFastQueueCommand(ctx *commandContext) *cobra.Command {
	fastCmd := &cobra.Command{
		Use:   "fastqueue",
		Short: "Inspect and repair the fast queue mirror",
	}

	fastCmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Reload every fast queue from durable membership",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntimeOptions(cmd, runtimeOptions{skipRebuild: true}, func(c context.Context, rt *runtime) error {
				entries, err := rt.filler.Rebuild(c)
				if err != nil {
					return fmt.Errorf("rebuild: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %s fast queue with %d entries\n", rt.cfg.FastQueue.Backend, entries)
				return nil
			})
		},
	})

	return fastCmd
}
