package dedupe_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/internal/people"
)

// memStore is an in-memory people.Store. WithinTx snapshots all state and
// restores it when fn fails, so tests can assert on rollback.
type memStore struct {
	mu sync.Mutex

	persons      map[uuid.UUID]people.Person
	tags         map[uuid.UUID][]uuid.UUID
	profiles     map[uuid.UUID][]people.SocialProfile
	companies    map[uuid.UUID][]uuid.UUID
	notes        map[uuid.UUID]uuid.UUID
	participants map[uuid.UUID][]uuid.UUID

	listErr error
	failOn  map[string]error
	// holdCommit makes WithinTx wait for ctx to end before committing.
	holdCommit bool
}

func newMemStore() *memStore {
	return &memStore{
		persons:      make(map[uuid.UUID]people.Person),
		tags:         make(map[uuid.UUID][]uuid.UUID),
		profiles:     make(map[uuid.UUID][]people.SocialProfile),
		companies:    make(map[uuid.UUID][]uuid.UUID),
		notes:        make(map[uuid.UUID]uuid.UUID),
		participants: make(map[uuid.UUID][]uuid.UUID),
		failOn:       make(map[string]error),
	}
}

func (s *memStore) add(p people.Person) people.Person {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(s.persons), 0, time.UTC)
	}
	s.persons[p.ID] = p
	return p
}

func (s *memStore) person(id uuid.UUID) (people.Person, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[id]
	return p, ok
}

func (s *memStore) ListPersons(ctx context.Context, workspaceID uuid.UUID) ([]people.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.listErr != nil {
		return nil, s.listErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []people.Person
	for _, p := range s.persons {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b people.Person) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *memStore) WithinTx(ctx context.Context, fn func(people.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()

	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}

	if s.holdCommit {
		<-ctx.Done()
	}

	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	if err := s.failOn["Commit"]; err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memState struct {
	persons      map[uuid.UUID]people.Person
	tags         map[uuid.UUID][]uuid.UUID
	profiles     map[uuid.UUID][]people.SocialProfile
	companies    map[uuid.UUID][]uuid.UUID
	notes        map[uuid.UUID]uuid.UUID
	participants map[uuid.UUID][]uuid.UUID
}

func (s *memStore) snapshot() memState {
	persons := make(map[uuid.UUID]people.Person, len(s.persons))
	for id, p := range s.persons {
		p.Sources = slices.Clone(p.Sources)
		p.SourceIDs = maps.Clone(p.SourceIDs)
		p.CustomData = maps.Clone(p.CustomData)
		persons[id] = p
	}

	return memState{
		persons:      persons,
		tags:         cloneSlices(s.tags),
		profiles:     cloneSlices(s.profiles),
		companies:    cloneSlices(s.companies),
		notes:        maps.Clone(s.notes),
		participants: cloneSlices(s.participants),
	}
}

func (s *memStore) restore(st memState) {
	s.persons = st.persons
	s.tags = st.tags
	s.profiles = st.profiles
	s.companies = st.companies
	s.notes = st.notes
	s.participants = st.participants
}

func cloneSlices[T any](m map[uuid.UUID][]T) map[uuid.UUID][]T {
	out := make(map[uuid.UUID][]T, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

type memTx struct {
	s *memStore
}

func (t *memTx) fail(op string) error {
	if err := t.s.failOn[op]; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *memTx) find(workspaceID, id uuid.UUID) (people.Person, error) {
	p, ok := t.s.persons[id]
	if !ok || p.WorkspaceID != workspaceID {
		return people.Person{}, fmt.Errorf("person %s: %w", id, people.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) GetPersonWithAssociations(ctx context.Context, workspaceID, id uuid.UUID) (*people.Record, error) {
	if err := t.fail("GetPersonWithAssociations"); err != nil {
		return nil, err
	}
	p, err := t.find(workspaceID, id)
	if err != nil {
		return nil, err
	}

	p.Sources = slices.Clone(p.Sources)
	p.SourceIDs = maps.Clone(p.SourceIDs)
	p.CustomData = maps.Clone(p.CustomData)

	return &people.Record{
		Person: p,
		Associations: people.Associations{
			TagIDs:         slices.Clone(t.s.tags[id]),
			SocialProfiles: slices.Clone(t.s.profiles[id]),
			CompanyIDs:     slices.Clone(t.s.companies[id]),
		},
	}, nil
}

func (t *memTx) UpdatePerson(ctx context.Context, workspaceID, id uuid.UUID, u people.Update) error {
	if err := t.fail("UpdatePerson"); err != nil {
		return err
	}
	p, err := t.find(workspaceID, id)
	if err != nil {
		return err
	}

	scalars := []struct {
		dst **string
		src *string
	}{
		{&p.FirstName, u.FirstName},
		{&p.LastName, u.LastName},
		{&p.DisplayName, u.DisplayName},
		{&p.Email, u.Email},
		{&p.Phone, u.Phone},
		{&p.Bio, u.Bio},
		{&p.Location, u.Location},
		{&p.AvatarURL, u.AvatarURL},
	}
	for _, f := range scalars {
		if f.src != nil {
			v := *f.src
			*f.dst = &v
		}
	}

	if u.Sources != nil {
		p.Sources = slices.Clone(u.Sources)
	}
	if u.SourceIDs != nil {
		p.SourceIDs = maps.Clone(u.SourceIDs)
	}
	if u.CustomData != nil {
		p.CustomData = maps.Clone(u.CustomData)
	}

	t.s.persons[id] = p
	return nil
}

func (t *memTx) RelinkDependents(
	ctx context.Context,
	workspaceID, fromID, toID uuid.UUID,
	tables ...people.Dependent,
) (map[people.Dependent]people.Relinked, error) {
	if err := t.fail("RelinkDependents"); err != nil {
		return nil, err
	}
	if _, err := t.find(workspaceID, fromID); err != nil {
		return nil, err
	}
	if _, err := t.find(workspaceID, toID); err != nil {
		return nil, err
	}

	result := make(map[people.Dependent]people.Relinked, len(tables))
	for _, table := range tables {
		var r people.Relinked

		switch table {
		case people.DependentNotes:
			for note, owner := range t.s.notes {
				if owner == fromID {
					t.s.notes[note] = toID
					r.Moved++
				}
			}
		case people.DependentInteractions:
			for interaction, ids := range t.s.participants {
				if !slices.Contains(ids, fromID) {
					continue
				}
				if slices.Contains(ids, toID) {
					ids = slices.DeleteFunc(ids, func(id uuid.UUID) bool { return id == fromID })
					r.Dropped++
				} else {
					ids[slices.Index(ids, fromID)] = toID
					r.Moved++
				}
				t.s.participants[interaction] = ids
			}
		case people.DependentCompanies:
			for _, c := range t.s.companies[fromID] {
				if slices.Contains(t.s.companies[toID], c) {
					r.Dropped++
					continue
				}
				t.s.companies[toID] = append(t.s.companies[toID], c)
				r.Moved++
			}
			delete(t.s.companies, fromID)
		default:
			return nil, fmt.Errorf("unknown dependent %q", table)
		}

		result[table] = r
	}

	return result, nil
}

func (t *memTx) UpsertTagAssociations(ctx context.Context, workspaceID, personID uuid.UUID, tagIDs []uuid.UUID) (int, error) {
	if err := t.fail("UpsertTagAssociations"); err != nil {
		return 0, err
	}
	if _, err := t.find(workspaceID, personID); err != nil {
		return 0, err
	}

	added := 0
	for _, tag := range tagIDs {
		if slices.Contains(t.s.tags[personID], tag) {
			continue
		}
		t.s.tags[personID] = append(t.s.tags[personID], tag)
		added++
	}
	return added, nil
}

func (t *memTx) UpsertSocialProfiles(ctx context.Context, workspaceID, personID uuid.UUID, profiles []people.SocialProfile) (int, error) {
	if err := t.fail("UpsertSocialProfiles"); err != nil {
		return 0, err
	}
	if _, err := t.find(workspaceID, personID); err != nil {
		return 0, err
	}

	added := 0
	for _, sp := range profiles {
		held := slices.ContainsFunc(t.s.profiles[personID], func(h people.SocialProfile) bool {
			return h.Platform == sp.Platform
		})
		if held {
			continue
		}
		t.s.profiles[personID] = append(t.s.profiles[personID], sp)
		added++
	}
	return added, nil
}

func (t *memTx) DeletePerson(ctx context.Context, workspaceID, id uuid.UUID) error {
	if err := t.fail("DeletePerson"); err != nil {
		return err
	}
	if _, err := t.find(workspaceID, id); err != nil {
		return err
	}

	delete(t.s.persons, id)
	delete(t.s.tags, id)
	delete(t.s.profiles, id)
	delete(t.s.companies, id)
	for note, owner := range t.s.notes {
		if owner == id {
			delete(t.s.notes, note)
		}
	}
	for interaction, ids := range t.s.participants {
		t.s.participants[interaction] = slices.DeleteFunc(ids, func(p uuid.UUID) bool { return p == id })
	}
	return nil
}

// memArchive records uploaded blobs.
type memArchive struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	uploadErr error
}

func newMemArchive() *memArchive {
	return &memArchive{blobs: make(map[string][]byte)}
}

func (a *memArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploadErr != nil {
		return a.uploadErr
	}
	a.blobs[key] = slices.Clone(data)
	return nil
}

func (a *memArchive) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.blobs, key)
	return nil
}

func (a *memArchive) has(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.blobs[key]
	return ok
}
