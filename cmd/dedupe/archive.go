package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/rapport/internal/dedupe"
	"github.com/JaimeStill/rapport/pkg/storage"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive WORKSPACE PERSON_ID",
		Short: "Print the archived snapshot of a merged-away person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceID, err := parseID("workspace", args[0])
			if err != nil {
				return err
			}
			personID, err := parseID("person id", args[1])
			if err != nil {
				return err
			}

			return ctx.withSession(cmd.Context(), func(s *session) error {
				if s.archive == nil {
					return errors.New("merge archiving is disabled; set dedupe.archive_absorbed")
				}

				key := dedupe.ArchiveKey(s.cfg.Dedupe.ArchivePrefix, workspaceID, personID)

				body, err := s.archive.Download(cmd.Context(), key)
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no archive at %s", key)
				}
				if err != nil {
					return err
				}
				defer body.Close()

				_, err = io.Copy(cmd.OutOrStdout(), body)
				return err
			})
		},
	}
}
