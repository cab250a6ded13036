package people

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/pkg/query"
	"github.com/JaimeStill/rapport/pkg/repository"
)

// Store is the person persistence contract consumed by the dedupe engine.
// Every operation is scoped by workspace; rows outside the workspace behave
// as if they did not exist.
type Store interface {
	// ListPersons returns a snapshot of every person in the workspace.
	ListPersons(ctx context.Context, workspaceID uuid.UUID) ([]Person, error)
	// WithinTx runs fn inside a single transaction. The transaction commits only
	// when fn returns nil; any error, or cancellation of ctx, rolls it back.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of person operations available inside a Store transaction.
type Tx interface {
	// GetPersonWithAssociations loads a person and its tag ids, social profiles,
	// and company ids, locking the person row for the rest of the transaction.
	GetPersonWithAssociations(ctx context.Context, workspaceID, id uuid.UUID) (*Record, error)
	UpdatePerson(ctx context.Context, workspaceID, id uuid.UUID, u Update) error
	// RelinkDependents rewrites foreign keys on the given tables from fromID to toID.
	// Rows that would duplicate an association toID already holds are dropped.
	RelinkDependents(ctx context.Context, workspaceID, fromID, toID uuid.UUID, tables ...Dependent) (map[Dependent]Relinked, error)
	// UpsertTagAssociations adds (personID, tag) for each tag, ignoring tags already held.
	UpsertTagAssociations(ctx context.Context, workspaceID, personID uuid.UUID, tagIDs []uuid.UUID) (int, error)
	// UpsertSocialProfiles adds each profile to personID unless it already has that platform.
	UpsertSocialProfiles(ctx context.Context, workspaceID, personID uuid.UUID, profiles []SocialProfile) (int, error)
	DeletePerson(ctx context.Context, workspaceID, id uuid.UUID) error
}

type pgStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed Store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &pgStore{
		db:     db,
		logger: logger.With("system", "people-store"),
	}
}

func (s *pgStore) ListPersons(ctx context.Context, workspaceID uuid.UUID) ([]Person, error) {
	q, args := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("WorkspaceID", workspaceID).
		Build()

	persons, err := repository.QueryMany(ctx, s.db, q, args, scanPerson)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("list persons: %w", err))
	}
	return persons, nil
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	var fnErr error
	_, err := repository.WithTxOptions(
		ctx, s.db,
		&sql.TxOptions{Isolation: sql.LevelReadCommitted},
		func(tx *sql.Tx) (struct{}, error) {
			fnErr = fn(&pgTx{tx: tx})
			return struct{}{}, fnErr
		},
	)

	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		return fnErr
	default:
		return mapStoreError(fmt.Errorf("transaction: %w", err))
	}
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetPersonWithAssociations(ctx context.Context, workspaceID, id uuid.UUID) (*Record, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("WorkspaceID", workspaceID).
		BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, t.tx, q+" FOR UPDATE", args, scanPerson)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("lock person %s: %w", id, err))
	}

	rec := &Record{Person: p}

	rec.TagIDs, err = repository.QueryMany(ctx, t.tx,
		"SELECT tag_id FROM person_tags WHERE person_id = $1 ORDER BY tag_id",
		[]any{id}, scanUUID,
	)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("load tags: %w", err))
	}

	rec.SocialProfiles, err = repository.QueryMany(ctx, t.tx,
		"SELECT platform, url, handle FROM social_profiles WHERE person_id = $1 ORDER BY platform",
		[]any{id}, scanSocialProfile,
	)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("load social profiles: %w", err))
	}

	rec.CompanyIDs, err = repository.QueryMany(ctx, t.tx,
		"SELECT company_id FROM person_companies WHERE person_id = $1 ORDER BY company_id",
		[]any{id}, scanUUID,
	)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("load companies: %w", err))
	}

	return rec, nil
}

func (t *pgTx) UpdatePerson(ctx context.Context, workspaceID, id uuid.UUID, u Update) error {
	if u.IsEmpty() {
		return nil
	}

	assignments, args, err := updateAssignments(u)
	if err != nil {
		return err
	}

	n := len(args)
	q := fmt.Sprintf(
		"UPDATE people SET %s, updated_at = NOW() WHERE workspace_id = $%d AND id = $%d",
		strings.Join(assignments, ", "), n+1, n+2,
	)
	args = append(args, workspaceID, id)

	if err := repository.ExecExpectOne(ctx, t.tx, q, args...); err != nil {
		return mapStoreError(fmt.Errorf("update person %s: %w", id, err))
	}
	return nil
}

func (t *pgTx) RelinkDependents(
	ctx context.Context,
	workspaceID, fromID, toID uuid.UUID,
	tables ...Dependent,
) (map[Dependent]Relinked, error) {
	if err := t.ensureInWorkspace(ctx, workspaceID, fromID, toID); err != nil {
		return nil, err
	}

	result := make(map[Dependent]Relinked, len(tables))
	for _, table := range tables {
		stmts, ok := relinkStatements[table]
		if !ok {
			return nil, fmt.Errorf("relink: unknown dependent table %q", table)
		}

		var r Relinked
		var err error

		if stmts.drop != "" {
			if r.Dropped, err = repository.ExecCount(ctx, t.tx, stmts.drop, fromID, toID); err != nil {
				return nil, mapStoreError(fmt.Errorf("relink %s: drop overlaps: %w", table, err))
			}
		}

		if r.Moved, err = repository.ExecCount(ctx, t.tx, stmts.move, fromID, toID); err != nil {
			return nil, mapStoreError(fmt.Errorf("relink %s: %w", table, err))
		}

		result[table] = r
	}

	return result, nil
}

func (t *pgTx) UpsertTagAssociations(ctx context.Context, workspaceID, personID uuid.UUID, tagIDs []uuid.UUID) (int, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	if err := t.ensureInWorkspace(ctx, workspaceID, personID); err != nil {
		return 0, err
	}

	added := 0
	for _, tagID := range tagIDs {
		n, err := repository.ExecCount(ctx, t.tx,
			`INSERT INTO person_tags (person_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT (person_id, tag_id) DO NOTHING`,
			personID, tagID,
		)
		if err != nil {
			return added, mapStoreError(fmt.Errorf("add tag %s: %w", tagID, err))
		}
		added += int(n)
	}
	return added, nil
}

func (t *pgTx) UpsertSocialProfiles(ctx context.Context, workspaceID, personID uuid.UUID, profiles []SocialProfile) (int, error) {
	if len(profiles) == 0 {
		return 0, nil
	}
	if err := t.ensureInWorkspace(ctx, workspaceID, personID); err != nil {
		return 0, err
	}

	added := 0
	for _, sp := range profiles {
		n, err := repository.ExecCount(ctx, t.tx,
			`INSERT INTO social_profiles (id, person_id, platform, url, handle) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (person_id, platform) DO NOTHING`,
			uuid.New(), personID, sp.Platform, sp.URL, sp.Handle,
		)
		if err != nil {
			return added, mapStoreError(fmt.Errorf("add social profile %s: %w", sp.Platform, err))
		}
		added += int(n)
	}
	return added, nil
}

func (t *pgTx) DeletePerson(ctx context.Context, workspaceID, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, t.tx,
		"DELETE FROM people WHERE workspace_id = $1 AND id = $2",
		workspaceID, id,
	); err != nil {
		return mapStoreError(fmt.Errorf("delete person %s: %w", id, err))
	}
	return nil
}

func (t *pgTx) ensureInWorkspace(ctx context.Context, workspaceID uuid.UUID, ids ...uuid.UUID) error {
	for _, id := range ids {
		var exists bool
		err := t.tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM people WHERE workspace_id = $1 AND id = $2)",
			workspaceID, id,
		).Scan(&exists)
		if err != nil {
			return mapStoreError(fmt.Errorf("check person %s: %w", id, err))
		}
		if !exists {
			return fmt.Errorf("person %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

type relinkSQL struct {
	drop string
	move string
}

// Statements take $1 = absorbed person, $2 = surviving person.
var relinkStatements = map[Dependent]relinkSQL{
	DependentInteractions: {
		drop: `DELETE FROM interaction_participants ip
			WHERE ip.person_id = $1
			AND EXISTS (
				SELECT 1 FROM interaction_participants k
				WHERE k.person_id = $2 AND k.interaction_id = ip.interaction_id
			)`,
		move: "UPDATE interaction_participants SET person_id = $2 WHERE person_id = $1",
	},
	DependentNotes: {
		move: "UPDATE notes SET person_id = $2, updated_at = NOW() WHERE person_id = $1",
	},
	DependentCompanies: {
		drop: `DELETE FROM person_companies pc
			WHERE pc.person_id = $1
			AND EXISTS (
				SELECT 1 FROM person_companies k
				WHERE k.person_id = $2 AND k.company_id = pc.company_id
			)`,
		move: "UPDATE person_companies SET person_id = $2 WHERE person_id = $1",
	},
}

func updateAssignments(u Update) ([]string, []any, error) {
	var (
		assignments []string
		args        []any
	)

	set := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	setJSON := func(column string, value any) error {
		doc, err := encodeJSON(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", column, err)
		}
		args = append(args, doc)
		assignments = append(assignments, fmt.Sprintf("%s = $%d::jsonb", column, len(args)))
		return nil
	}

	scalars := []struct {
		column string
		value  *string
	}{
		{"first_name", u.FirstName},
		{"last_name", u.LastName},
		{"display_name", u.DisplayName},
		{"email", u.Email},
		{"phone", u.Phone},
		{"bio", u.Bio},
		{"location", u.Location},
		{"avatar_url", u.AvatarURL},
	}
	for _, s := range scalars {
		if s.value != nil {
			set(s.column, *s.value)
		}
	}

	if u.Sources != nil {
		if err := setJSON("sources", u.Sources); err != nil {
			return nil, nil, err
		}
	}
	if u.SourceIDs != nil {
		if err := setJSON("source_ids", u.SourceIDs); err != nil {
			return nil, nil, err
		}
	}
	if u.CustomData != nil {
		if err := setJSON("custom_data", u.CustomData); err != nil {
			return nil, nil, err
		}
	}

	return assignments, args, nil
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case repository.IsTransient(err):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func scanUUID(s repository.Scanner) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.Scan(&id)
	return id, err
}

func scanSocialProfile(s repository.Scanner) (SocialProfile, error) {
	var sp SocialProfile
	err := s.Scan(&sp.Platform, &sp.URL, &sp.Handle)
	return sp, err
}
