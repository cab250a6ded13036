package api

import (
	"github.com/JaimeStill/rapport/internal/config"
	"github.com/JaimeStill/rapport/internal/dedupe"
	"github.com/JaimeStill/rapport/internal/infrastructure"
	"github.com/JaimeStill/rapport/pkg/pagination"
)

// Runtime is the infrastructure view handed to the API's domain systems,
// scoped with an "api" logger and carrying the settings they consume.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Dedupe     dedupe.Config
}

// NewRuntime derives an API runtime from shared infrastructure. The
// lifecycle, database, and storage are shared, not copied.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Dedupe: dedupe.Config{
			ArchivePrefix: cfg.Dedupe.ArchivePrefix,
			MergeTimeout:  cfg.Dedupe.MergeTimeoutDuration(),
		},
	}
}

// Archive returns the blob store absorbed persons are written to, or nil
// when archiving is disabled.
func (r *Runtime) Archive() dedupe.Archive {
	if r.Storage == nil {
		return nil
	}
	return r.Storage
}
