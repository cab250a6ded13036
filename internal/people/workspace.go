package people

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/pkg/repository"
)

// Workspace summarizes a tenant and the number of people it holds.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	People    int       `json:"people"`
	CreatedAt time.Time `json:"created_at"`
}

const workspacesQuery = `
SELECT w.id, w.name, w.created_at, COUNT(p.id)
FROM workspaces w
LEFT JOIN people p ON p.workspace_id = w.id
GROUP BY w.id, w.name, w.created_at
ORDER BY w.created_at, w.id`

func (r *repo) Workspaces(ctx context.Context) ([]Workspace, error) {
	workspaces, err := repository.QueryMany(ctx, r.db, workspacesQuery, nil, scanWorkspace)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("query workspaces: %w", err))
	}
	return workspaces, nil
}

func scanWorkspace(s repository.Scanner) (Workspace, error) {
	var w Workspace
	err := s.Scan(&w.ID, &w.Name, &w.CreatedAt, &w.People)
	return w, err
}
