package people_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/rapport/internal/people"
	"github.com/JaimeStill/rapport/pkg/pagination"
)

const envTestDSN = "RAPPORT_TEST_DSN"

// openTestDB connects to a migrated database named by RAPPORT_TEST_DSN and
// creates an isolated workspace that is removed when the test ends.
func openTestDB(t *testing.T) (*sql.DB, uuid.UUID) {
	t.Helper()

	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skipf("%s not set", envTestDSN)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ws := uuid.New()
	_, err = db.Exec("INSERT INTO workspaces (id, name) VALUES ($1, $2)", ws, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec("DELETE FROM workspaces WHERE id = $1", ws) })

	return db, ws
}

func insertPerson(t *testing.T, db *sql.DB, ws uuid.UUID, first, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO people (id, workspace_id, first_name, email, sources, source_ids)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), '["csv"]', '{"csv":"row-1"}')`,
		id, ws, first, email,
	)
	require.NoError(t, err)
	return id
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreListPersons(t *testing.T) {
	db, ws := openTestDB(t)
	_, other := openTestDB(t)

	a := insertPerson(t, db, ws, "Jane", "jane@acme.com")
	b := insertPerson(t, db, ws, "", "")
	insertPerson(t, db, other, "Other", "")

	store := people.NewStore(db, testLogger())

	persons, err := store.ListPersons(context.Background(), ws)
	require.NoError(t, err)
	require.Len(t, persons, 2)

	ids := []uuid.UUID{persons[0].ID, persons[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)

	for _, p := range persons {
		assert.Equal(t, []string{"csv"}, p.Sources)
		assert.Equal(t, map[string]string{"csv": "row-1"}, p.SourceIDs)
		assert.NotNil(t, p.CustomData)
	}
}

func TestStoreTransaction(t *testing.T) {
	db, ws := openTestDB(t)
	store := people.NewStore(db, testLogger())
	ctx := context.Background()

	keep := insertPerson(t, db, ws, "Jane", "")
	absorb := insertPerson(t, db, ws, "Janet", "janet@acme.com")

	tag := uuid.New()
	_, err := db.Exec("INSERT INTO tags (id, workspace_id, name) VALUES ($1, $2, 'vip')", tag, ws)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO person_tags (person_id, tag_id) VALUES ($1, $2)", absorb, tag)
	require.NoError(t, err)
	_, err = db.Exec(
		"INSERT INTO social_profiles (id, person_id, platform, handle) VALUES ($1, $2, 'github', 'janet')",
		uuid.New(), absorb,
	)
	require.NoError(t, err)

	t.Run("reads associations", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx people.Tx) error {
			rec, err := tx.GetPersonWithAssociations(ctx, ws, absorb)
			if err != nil {
				return err
			}
			assert.Equal(t, []uuid.UUID{tag}, rec.TagIDs)
			require.Len(t, rec.SocialProfiles, 1)
			assert.Equal(t, "github", rec.SocialProfiles[0].Platform)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(tx people.Tx) error {
			if err := tx.UpdatePerson(ctx, ws, keep, people.Update{Email: ptr("jane@acme.com")}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		sys := people.New(db, testLogger(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
		p, err := sys.Find(ctx, ws, keep)
		require.NoError(t, err)
		assert.Nil(t, p.Email)
	})

	t.Run("upserts are idempotent", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx people.Tx) error {
			added, err := tx.UpsertTagAssociations(ctx, ws, keep, []uuid.UUID{tag, tag})
			if err != nil {
				return err
			}
			assert.Equal(t, 1, added)

			added, err = tx.UpsertSocialProfiles(ctx, ws, keep, []people.SocialProfile{
				{Platform: "github", Handle: ptr("jane")},
				{Platform: "github", Handle: ptr("jane2")},
			})
			if err != nil {
				return err
			}
			assert.Equal(t, 1, added)
			return errors.New("discard")
		})
		require.Error(t, err)
	})

	t.Run("cross-workspace access is rejected", func(t *testing.T) {
		err := store.WithinTx(ctx, func(tx people.Tx) error {
			_, err := tx.GetPersonWithAssociations(ctx, uuid.New(), keep)
			return err
		})
		assert.ErrorIs(t, err, people.ErrNotFound)

		err = store.WithinTx(ctx, func(tx people.Tx) error {
			return tx.DeletePerson(ctx, uuid.New(), keep)
		})
		assert.ErrorIs(t, err, people.ErrNotFound)
	})
}

func ptr(s string) *string { return &s }

func TestRepoWorkspaces(t *testing.T) {
	db, ws := openTestDB(t)
	insertPerson(t, db, ws, "Jane", "")
	insertPerson(t, db, ws, "John", "")

	sys := people.New(db, testLogger(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	workspaces, err := sys.Workspaces(context.Background())
	require.NoError(t, err)

	var found *people.Workspace
	for i := range workspaces {
		if workspaces[i].ID == ws {
			found = &workspaces[i]
		}
	}
	require.NotNil(t, found, "workspace %s not listed", ws)
	assert.Equal(t, 2, found.People)
	assert.Equal(t, t.Name(), found.Name)
}
