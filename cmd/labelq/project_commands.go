package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"labelq/internal/store"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage annotation projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := rt.store.CreateProject(c, args[0])
				if err != nil {
					return fmt.Errorf("create project: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project #%d %s\n", project.ID, project.Name)
				return nil
			})
		},
	}
}

type projectView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Data     int    `json:"data"`
	Eligible int    `json:"eligible"`
	Queues   int    `json:"queues"`
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with data counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				projects, err := rt.store.ListProjects(c)
				if err != nil {
					return err
				}
				views := make([]projectView, 0, len(projects))
				for _, p := range projects {
					total, err := rt.store.CountData(c, p.ID)
					if err != nil {
						return err
					}
					eligible, err := rt.store.CountEligible(c, p.ID)
					if err != nil {
						return err
					}
					queues, err := rt.store.ListQueues(c, p.ID, store.OwnerAny)
					if err != nil {
						return err
					}
					views = append(views, projectView{
						ID:       p.ID,
						Name:     p.Name,
						Data:     total,
						Eligible: eligible,
						Queues:   len(queues),
					})
				}
				if asJSON {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No projects")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.Name,
						strconv.Itoa(v.Data),
						strconv.Itoa(v.Eligible),
						strconv.Itoa(v.Queues),
					})
				}
				table := renderTable("", []string{"ID", "Name", "Data", "Eligible", "Queues"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight})
				fmt.Fprintln(out, strings.TrimRight(table, "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage annotators",
	}

	var email string
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				user, err := rt.store.CreateUser(c, args[0], email)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user #%d %s\n", user.ID, user.Username)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "Contact email")
	userCmd.AddCommand(createCmd)
	return userCmd
}
