package people

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/pkg/pagination"
)

// System defines the read-side contract for person lookups.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		workspaceID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Person], error)

	Find(ctx context.Context, workspaceID, id uuid.UUID) (*Person, error)

	// Workspaces lists every workspace with its person count, oldest first.
	Workspaces(ctx context.Context) ([]Workspace, error)
}
