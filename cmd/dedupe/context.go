package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/JaimeStill/rapport/internal/config"
	"github.com/JaimeStill/rapport/internal/dedupe"
	"github.com/JaimeStill/rapport/internal/people"
	"github.com/JaimeStill/rapport/pkg/database"
	"github.com/JaimeStill/rapport/pkg/lifecycle"
	"github.com/JaimeStill/rapport/pkg/storage"
)

type globalOptions struct {
	config  string
	json    bool
	verbose bool
}

type commandContext struct {
	opts *globalOptions

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(opts *globalOptions) *commandContext {
	return &commandContext{opts: opts}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.LoadFrom(c.opts.config)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.opts.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// session holds the systems a single command invocation works against.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	lc      *lifecycle.Coordinator
	people  people.System
	dedupe  dedupe.System
	archive storage.System
}

// withSession connects to the database (and archive storage when enabled),
// runs fn, and releases everything afterwards.
func (c *commandContext) withSession(ctx context.Context, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := c.logger().With("module", "cli")

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	s := &session{
		cfg:    cfg,
		logger: logger,
		db:     db,
		lc:     lifecycle.New(),
	}
	defer s.lc.Shutdown(cfg.ShutdownTimeoutDuration())

	var archive dedupe.Archive
	if cfg.Dedupe.ArchiveAbsorbed {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("storage init failed: %w", err)
		}
		if err := store.Start(s.lc); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
		s.archive = store
		archive = store
	}
	if err := s.lc.WaitForStartup(); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	s.people = people.New(db, logger, cfg.API.Pagination)
	s.dedupe = dedupe.New(
		people.NewStore(db, logger),
		archive,
		logger,
		dedupe.Config{
			ArchivePrefix: cfg.Dedupe.ArchivePrefix,
			MergeTimeout:  cfg.Dedupe.MergeTimeoutDuration(),
		},
	)

	return fn(s)
}
