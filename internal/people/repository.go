package people

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/pkg/pagination"
	"github.com/JaimeStill/rapport/pkg/query"
	"github.com/JaimeStill/rapport/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a person repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "people"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	workspaceID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Person], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("WorkspaceID", workspaceID).
		WhereSearch(page.Search, "FirstName", "LastName", "DisplayName", "Email")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, mapStoreError(fmt.Errorf("count people: %w", err))
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	persons, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPerson)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("query people: %w", err))
	}

	result := pagination.NewPageResult(persons, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, workspaceID, id uuid.UUID) (*Person, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("WorkspaceID", workspaceID).
		BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPerson)
	if err != nil {
		if repository.IsTransient(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}
