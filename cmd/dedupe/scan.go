package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/rapport/internal/dedupe"
)

type scanOptions struct {
	all           bool
	collapse      bool
	minConfidence float64
	concurrency   int
}

// workspaceScan is the scan outcome for one workspace.
type workspaceScan struct {
	WorkspaceID uuid.UUID          `json:"workspace_id"`
	Candidates  []dedupe.Candidate `json:"candidates"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [WORKSPACE...]",
		Short: "List duplicate candidates for one or more workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.all && len(args) == 0 {
				return errors.New("name at least one workspace or pass --all")
			}

			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := parseID("workspace", arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return ctx.withSession(cmd.Context(), func(s *session) error {
				if opts.all {
					workspaces, err := s.people.Workspaces(cmd.Context())
					if err != nil {
						return fmt.Errorf("list workspaces: %w", err)
					}
					ids = ids[:0]
					for _, w := range workspaces {
						ids = append(ids, w.ID)
					}
				}

				scans, err := scanWorkspaces(cmd.Context(), s.dedupe, ids, opts)
				if err != nil {
					return err
				}

				if ctx.opts.json {
					return writeJSON(cmd, scans)
				}
				printScans(cmd.OutOrStdout(), scans)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Scan every workspace")
	cmd.Flags().BoolVar(&opts.collapse, "collapse", false, "Keep only the strongest candidate per pair")
	cmd.Flags().Float64Var(&opts.minConfidence, "min-confidence", 0, "Hide candidates below this confidence")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Workspaces scanned in parallel")

	return cmd
}

// scanWorkspaces scans each workspace with bounded parallelism. Results keep
// the order of ids; the first failure cancels the remaining scans.
func scanWorkspaces(ctx context.Context, sys dedupe.System, ids []uuid.UUID, opts *scanOptions) ([]workspaceScan, error) {
	scans := make([]workspaceScan, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.concurrency, 1))

	for i, id := range ids {
		g.Go(func() error {
			candidates, err := sys.Scan(gctx, id)
			if err != nil {
				return fmt.Errorf("scan workspace %s: %w", id, err)
			}

			if opts.collapse {
				candidates = dedupe.Collapse(candidates)
			}

			scans[i] = workspaceScan{
				WorkspaceID: id,
				Candidates:  filterConfidence(candidates, opts.minConfidence),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scans, nil
}

func filterConfidence(candidates []dedupe.Candidate, floor float64) []dedupe.Candidate {
	out := make([]dedupe.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= floor {
			out = append(out, c)
		}
	}
	return out
}

func printScans(out io.Writer, scans []workspaceScan) {
	total := 0
	rows := make([][]string, 0)

	for _, s := range scans {
		for _, c := range s.Candidates {
			rows = append(rows, []string{
				s.WorkspaceID.String(),
				c.PersonA.String(),
				c.PersonB.String(),
				string(c.Rule),
				strconv.FormatFloat(c.Confidence, 'f', 2, 64),
				c.Reason,
			})
		}
		total += len(s.Candidates)
	}

	if total == 0 {
		fmt.Fprintf(out, "No duplicate candidates in %d workspace(s)\n", len(scans))
		return
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Workspace", "Person A", "Person B", "Rule", "Confidence", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d candidate(s) across %d workspace(s)\n", total, len(scans))
}
