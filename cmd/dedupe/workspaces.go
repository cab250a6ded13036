package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newWorkspacesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces and their person counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session) error {
				workspaces, err := s.people.Workspaces(cmd.Context())
				if err != nil {
					return fmt.Errorf("list workspaces: %w", err)
				}

				if ctx.opts.json {
					return writeJSON(cmd, workspaces)
				}

				out := cmd.OutOrStdout()
				if len(workspaces) == 0 {
					fmt.Fprintln(out, "No workspaces")
					return nil
				}

				rows := make([][]string, 0, len(workspaces))
				for _, w := range workspaces {
					rows = append(rows, []string{
						w.ID.String(),
						w.Name,
						strconv.Itoa(w.People),
						w.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "People", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}
