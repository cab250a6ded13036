package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/rapport/internal/dedupe"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "merge WORKSPACE KEEP_ID MERGE_ID",
		Short: "Fold MERGE_ID into KEEP_ID and delete MERGE_ID",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceID, err := parseID("workspace", args[0])
			if err != nil {
				return err
			}
			keepID, err := parseID("keep id", args[1])
			if err != nil {
				return err
			}
			mergeID, err := parseID("merge id", args[2])
			if err != nil {
				return err
			}

			return ctx.withSession(cmd.Context(), func(s *session) error {
				run := s.dedupe.Merge
				if dryRun {
					run = s.dedupe.Preview
				}

				result, err := run(cmd.Context(), workspaceID, keepID, mergeID)
				if err != nil {
					return describeMergeError(err)
				}

				if ctx.opts.json {
					return writeJSON(cmd, result)
				}
				printMergeResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the merge without persisting it")

	return cmd
}

func describeMergeError(err error) error {
	var step *dedupe.StepError
	if errors.As(err, &step) {
		return fmt.Errorf("merge rolled back at %s step: %w", step.Step, err)
	}
	return fmt.Errorf("merge: %w", err)
}

func printMergeResult(out io.Writer, r *dedupe.MergeResult) {
	rows := [][]string{
		{"Keep", r.KeepID.String()},
		{"Absorbed", r.AbsorbedID.String()},
		{"Filled fields", listOrNone(r.FilledFields)},
		{"Sources added", listOrNone(r.SourcesAdded)},
		{"Source ids added", listOrNone(r.SourceIDsAdded)},
		{"Custom data added", listOrNone(r.CustomDataAdded)},
		{"Tags added", strconv.Itoa(r.TagsAdded)},
		{"Profiles added", strconv.Itoa(r.ProfilesAdded)},
		{"Profiles dropped", strconv.Itoa(r.ProfilesDropped)},
	}

	for _, dep := range slices.Sorted(maps.Keys(r.Relinked)) {
		rl := r.Relinked[dep]
		rows = append(rows, []string{
			"Relinked " + string(dep),
			fmt.Sprintf("%d moved, %d dropped", rl.Moved, rl.Dropped),
		})
	}

	if r.ArchiveKey != "" {
		rows = append(rows, []string{"Archive", r.ArchiveKey})
	}
	rows = append(rows, []string{"Duration", r.Duration.String()})

	if r.DryRun {
		fmt.Fprintln(out, "Dry run: nothing was persisted")
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}
