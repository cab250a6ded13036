package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/rapport/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "RAPPORT_DB_DSN"

type options struct {
	dsn    string
	config string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or revert the rapport schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "Database connection URL (overrides config and "+envDSN+")")
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", config.BaseConfigFile, "Configuration file path")

	root.AddCommand(
		newUpCommand(opts),
		newDownCommand(opts),
		newStepsCommand(opts),
		newVersionCommand(opts),
		newForceCommand(opts),
	)

	return root
}

// resolveDSN picks the connection URL: the --dsn flag, then RAPPORT_DB_DSN,
// then the database section of the config file.
func (o *options) resolveDSN() (string, error) {
	if dsn := strings.TrimSpace(o.dsn); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(os.Getenv(envDSN)); dsn != "" {
		return dsn, nil
	}

	cfg, err := config.LoadFrom(o.config)
	if err != nil {
		return "", fmt.Errorf("resolve dsn: %w", err)
	}
	return cfg.Database.URL(), nil
}

func (o *options) withMigrator(fn func(*migrate.Migrate) error) error {
	dsn, err := o.resolveDSN()
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
