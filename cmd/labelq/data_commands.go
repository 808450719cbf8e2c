package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// maxDatumBytes bounds a single input line.
const maxDatumBytes = 1 << 20

func newDataCommand(ctx *commandContext) *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Manage project data",
	}

	dataCmd.AddCommand(&cobra.Command{
		Use:   "add PROJECT [FILE|-]",
		Short: "Add data to a project, one item per line",
		Long: `Add data to a project. Each non-blank line of FILE becomes one data item.
Reads standard input when FILE is omitted or "-".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				file, err := os.Open(args[1])
				if err != nil {
					return fmt.Errorf("open data file: %w", err)
				}
				defer file.Close()
				source = file
			}
			texts, err := readLines(source)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data to add")
				return nil
			}

			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				project, err := resolveProject(c, rt.store, args[0])
				if err != nil {
					return err
				}
				ids, err := rt.store.AddData(c, project.ID, texts)
				if err != nil {
					return fmt.Errorf("add data: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d data item(s) to %s\n", len(ids), project.Name)
				return nil
			})
		},
	})

	return dataCmd
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDatumBytes)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return lines, nil
}
