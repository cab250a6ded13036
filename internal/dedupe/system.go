// Package dedupe detects duplicate persons within a workspace and merges
// confirmed pairs. The scanner is a pure computation over a snapshot read;
// the merge executor runs as one transaction against people.Store.
package dedupe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/internal/people"
)

// System defines the public contract for duplicate detection and merging.
type System interface {
	Handler() *Handler

	// Scan returns scored duplicate candidates for the workspace.
	Scan(ctx context.Context, workspaceID uuid.UUID) ([]Candidate, error)

	// Merge folds absorbID into keepID and deletes absorbID.
	Merge(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID) (*MergeResult, error)

	// Preview reports what Merge would do without persisting anything.
	Preview(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID) (*MergeResult, error)
}

// Archive receives a snapshot of each absorbed person before it is deleted.
// storage.System satisfies it.
type Archive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Config holds merge executor settings.
type Config struct {
	// ArchivePrefix is the key prefix for absorbed-person snapshots.
	ArchivePrefix string
	// MergeTimeout bounds a single merge transaction. Zero means no bound
	// beyond the caller's context.
	MergeTimeout time.Duration
}

type engine struct {
	store   people.Store
	archive Archive
	logger  *slog.Logger
	cfg     Config
}

// New creates the dedupe system. archive may be nil to disable snapshots.
func New(store people.Store, archive Archive, logger *slog.Logger, cfg Config) System {
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "merges"
	}

	return &engine{
		store:   store,
		archive: archive,
		logger:  logger.With("system", "dedupe"),
		cfg:     cfg,
	}
}

func (e *engine) Handler() *Handler {
	return NewHandler(e, e.logger)
}

func (e *engine) Scan(ctx context.Context, workspaceID uuid.UUID) ([]Candidate, error) {
	start := time.Now()

	persons, err := e.store.ListPersons(ctx, workspaceID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, wrapUnavailable(err)
	}

	candidates, err := FindCandidates(ctx, persons)
	if err != nil {
		return nil, err
	}

	e.logger.Info(
		"scan completed",
		"workspace", workspaceID,
		"persons", len(persons),
		"candidates", len(candidates),
		"duration", time.Since(start),
	)

	return candidates, nil
}
