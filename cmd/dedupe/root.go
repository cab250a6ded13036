package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/rapport/internal/config"
)

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	ctx := newCommandContext(opts)

	root := &cobra.Command{
		Use:           "dedupe",
		Short:         "Find and merge duplicate people",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "c", config.BaseConfigFile, "Configuration file path")
	flags.BoolVar(&opts.json, "json", false, "Write JSON instead of tables")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log at info level")

	root.AddCommand(
		newScanCommand(ctx),
		newMergeCommand(ctx),
		newWorkspacesCommand(ctx),
		newArchiveCommand(ctx),
	)

	return root
}
