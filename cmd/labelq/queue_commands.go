package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labelq/internal/fill"
	"labelq/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Create, fill and inspect queues",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueFillCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueDeleteCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var (
		length  int
		user    string
		fillNow bool
	)
	cmd := &cobra.Command{
		Use:   "add PROJECT",
		Short: "Create a queue for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if length <= 0 {
				return errors.New("--length must be positive")
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := resolveProject(c, rt.store, args[0])
				if err != nil {
					return err
				}
				userID, err := resolveUserID(c, rt.store, user)
				if err != nil {
					return err
				}
				queue, err := rt.store.CreateQueue(c, project.ID, userID, length)
				if err != nil {
					return fmt.Errorf("create queue: %w", err)
				}
				out := cmd.OutOrStdout()
				owner := "shared"
				if userID != 0 {
					owner = strings.TrimSpace(user)
				}
				fmt.Fprintf(out, "Created queue #%d for %s (%s, length %d)\n", queue.ID, project.Name, owner, queue.Length)
				if !fillNow {
					return nil
				}
				result, err := rt.filler.Fill(c, queue)
				if err != nil {
					return fmt.Errorf("fill queue: %w", err)
				}
				fmt.Fprintln(out, describeFill(result))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&length, "length", 0, "Maximum number of data the queue holds")
	cmd.Flags().StringVar(&user, "user", "", "Owner username or id; omit for a shared queue")
	cmd.Flags().BoolVar(&fillNow, "fill", false, "Fill the queue after creating it")
	return cmd
}

type queueView struct {
	ID       int64  `json:"id"`
	Owner    string `json:"owner"`
	UserID   int64  `json:"userId,omitempty"`
	Length   int    `json:"length"`
	Members  int    `json:"members"`
	Assigned int    `json:"assigned"`
	Free     int    `json:"free"`
	Fast     int    `json:"fast"`
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List queues with membership counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := resolveProject(c, rt.store, args[0])
				if err != nil {
					return err
				}
				stats, err := rt.store.QueueStats(c, project.ID)
				if err != nil {
					return err
				}
				usernames, err := queueOwners(c, rt.store, stats)
				if err != nil {
					return err
				}
				views := make([]queueView, 0, len(stats))
				for _, stat := range stats {
					fastLen, err := rt.fast.Len(c, stat.Queue.ID)
					if err != nil {
						return fmt.Errorf("fast queue length: %w", err)
					}
					views = append(views, queueView{
						ID:       stat.Queue.ID,
						Owner:    ownerLabel(stat.Queue.UserID, usernames),
						UserID:   stat.Queue.UserID,
						Length:   stat.Queue.Length,
						Members:  stat.Members,
						Assigned: stat.Assigned,
						Free:     stat.Free(),
						Fast:     fastLen,
					})
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintf(out, "No queues for %s\n", project.Name)
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.Owner,
						strconv.Itoa(v.Length),
						strconv.Itoa(v.Members),
						strconv.Itoa(v.Fast),
						strconv.Itoa(v.Assigned),
						strconv.Itoa(v.Free),
					})
				}
				table := renderTable(project.Name,
					[]string{"ID", "Owner", "Length", "Members", "Fast", "Assigned", "Free"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight})
				fmt.Fprintln(out, strings.TrimRight(table, "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueFillCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fill QUEUE_ID",
		Short: "Top up a queue from eligible data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queueID, err := parseID("queue", args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				result, err := rt.filler.FillQueue(c, queueID)
				if err != nil {
					return fmt.Errorf("fill queue: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeFill(result))
				return nil
			})
		},
	}
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show QUEUE_ID",
		Short: "Show the data a queue holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queueID, err := parseID("queue", args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				queue, err := rt.store.GetQueue(c, queueID)
				if err != nil {
					return err
				}
				memberIDs, err := rt.store.QueueMembers(c, queue.ID)
				if err != nil {
					return err
				}
				data, err := rt.store.DataByIDs(c, memberIDs)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, data)
				}
				out := cmd.OutOrStdout()
				owner := "shared"
				if !queue.Shared() {
					if user, err := rt.store.GetUser(c, queue.UserID); err == nil {
						owner = user.Username
					} else {
						owner = ownerLabel(queue.UserID, nil)
					}
				}
				fmt.Fprintf(out, "Queue #%d  project #%d  owner %s  %d/%d\n",
					queue.ID, queue.ProjectID, owner, len(memberIDs), queue.Length)
				if len(data) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(data))
				for _, d := range data {
					rows = append(rows, []string{strconv.FormatInt(d.ID, 10), truncate(d.Text, 60)})
				}
				fmt.Fprintln(out, strings.TrimRight(renderTable("", []string{"Data", "Text"}, rows,
					[]columnAlignment{alignRight, alignLeft}), "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete QUEUE_ID",
		Short: "Delete a queue and return its data to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queueID, err := parseID("queue", args[0])
			if err != nil {
				return err
			}
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				if err := rt.store.DeleteQueue(c, queueID); err != nil {
					return err
				}
				if err := rt.fast.Drop(c, queueID); err != nil {
					return fmt.Errorf("drop fast queue: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted queue #%d\n", queueID)
				return nil
			})
		},
	}
}

func queueOwners(ctx context.Context, st *store.Store, stats []store.QueueStat) (map[int64]string, error) {
	names := make(map[int64]string)
	for _, stat := range stats {
		id := stat.Queue.UserID
		if id == 0 {
			continue
		}
		if _, ok := names[id]; ok {
			continue
		}
		user, err := st.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		names[id] = user.Username
	}
	return names, nil
}

func describeFill(result fill.Result) string {
	switch {
	case result.Requested == 0:
		return fmt.Sprintf("Queue #%d is full", result.QueueID)
	case result.Fallback:
		return fmt.Sprintf("Queue #%d: added %d of %d requested (eligible data exhausted)",
			result.QueueID, result.Inserted, result.Requested)
	default:
		return fmt.Sprintf("Queue #%d: added %d of %d requested", result.QueueID, result.Inserted, result.Requested)
	}
}
