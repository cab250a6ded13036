package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapport/internal/people"
)

// MergeResult reports what a merge changed on the surviving person.
type MergeResult struct {
	WorkspaceID     uuid.UUID                            `json:"workspace_id"`
	KeepID          uuid.UUID                            `json:"keep_id"`
	AbsorbedID      uuid.UUID                            `json:"absorbed_id"`
	FilledFields    []string                             `json:"filled_fields"`
	SourcesAdded    []string                             `json:"sources_added"`
	SourceIDsAdded  []string                             `json:"source_ids_added"`
	CustomDataAdded []string                             `json:"custom_data_added"`
	TagsAdded       int                                  `json:"tags_added"`
	ProfilesAdded   int                                  `json:"profiles_added"`
	ProfilesDropped int                                  `json:"profiles_dropped"`
	Relinked        map[people.Dependent]people.Relinked `json:"relinked"`
	ArchiveKey      string                               `json:"archive_key,omitempty"`
	DryRun          bool                                 `json:"dry_run"`
	Duration        time.Duration                        `json:"duration"`
}

var errDryRun = errors.New("dry run")

func (e *engine) Merge(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID) (*MergeResult, error) {
	return e.merge(ctx, workspaceID, keepID, absorbID, false)
}

func (e *engine) Preview(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID) (*MergeResult, error) {
	return e.merge(ctx, workspaceID, keepID, absorbID, true)
}

func (e *engine) merge(ctx context.Context, workspaceID, keepID, absorbID uuid.UUID, dryRun bool) (*MergeResult, error) {
	if keepID == absorbID {
		return nil, ErrInvalidPair
	}

	if e.cfg.MergeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.MergeTimeout)
		defer cancel()
	}

	start := time.Now()
	result := &MergeResult{
		WorkspaceID: workspaceID,
		KeepID:      keepID,
		AbsorbedID:  absorbID,
		DryRun:      dryRun,
		Relinked:    make(map[people.Dependent]people.Relinked),
	}

	var readDone bool

	err := e.store.WithinTx(ctx, func(tx people.Tx) error {
		keep, absorb, err := lockPair(ctx, tx, workspaceID, keepID, absorbID)
		if err != nil {
			return err
		}
		readDone = true

		return e.apply(ctx, tx, keep, absorb, result)
	})

	if errors.Is(err, errDryRun) {
		result.Duration = time.Since(start)
		return result, nil
	}

	if err != nil {
		e.discardArchive(ctx, result.ArchiveKey)
		result.ArchiveKey = ""
		return nil, classifyMergeError(err, readDone)
	}

	result.Duration = time.Since(start)

	e.logger.Info(
		"merge completed",
		"workspace", workspaceID,
		"keep", keepID,
		"absorbed", absorbID,
		"filled", len(result.FilledFields),
		"tags_added", result.TagsAdded,
		"profiles_added", result.ProfilesAdded,
		"archive_key", result.ArchiveKey,
		"duration", result.Duration,
	)

	return result, nil
}

// apply runs every write step against an already-locked pair. In dry-run mode
// it still executes the writes so the report carries real counts, then
// returns errDryRun so the transaction rolls back.
func (e *engine) apply(ctx context.Context, tx people.Tx, keep, absorb *people.Record, result *MergeResult) error {
	ws := keep.WorkspaceID

	update := reconcile(keep, absorb, result)
	if err := tx.UpdatePerson(ctx, ws, keep.ID, update); err != nil {
		return stepFailed(StepReconcile, err)
	}

	relinked, err := tx.RelinkDependents(ctx, ws, absorb.ID, keep.ID,
		people.DependentInteractions, people.DependentNotes,
	)
	if err != nil {
		return stepFailed(StepRelink, err)
	}
	maps.Copy(result.Relinked, relinked)

	tags := missingTags(keep.TagIDs, absorb.TagIDs)
	if result.TagsAdded, err = tx.UpsertTagAssociations(ctx, ws, keep.ID, tags); err != nil {
		return stepFailed(StepTags, err)
	}

	profiles, dropped := missingProfiles(keep.SocialProfiles, absorb.SocialProfiles)
	result.ProfilesDropped = dropped
	if result.ProfilesAdded, err = tx.UpsertSocialProfiles(ctx, ws, keep.ID, profiles); err != nil {
		return stepFailed(StepProfiles, err)
	}

	companies, err := tx.RelinkDependents(ctx, ws, absorb.ID, keep.ID, people.DependentCompanies)
	if err != nil {
		return stepFailed(StepRelink, err)
	}
	maps.Copy(result.Relinked, companies)

	if result.DryRun {
		return errDryRun
	}

	if e.archive != nil {
		key, err := e.archiveAbsorbed(ctx, absorb)
		if err != nil {
			return stepFailed(StepArchive, err)
		}
		result.ArchiveKey = key
	}

	if err := tx.DeletePerson(ctx, ws, absorb.ID); err != nil {
		return stepFailed(StepDelete, err)
	}

	return nil
}

// lockPair loads both records in ascending id order so that two merges over
// overlapping rows acquire their row locks in the same order.
func lockPair(ctx context.Context, tx people.Tx, workspaceID, keepID, absorbID uuid.UUID) (keep, absorb *people.Record, err error) {
	first, second := keepID, absorbID
	if second.String() < first.String() {
		first, second = second, first
	}

	records := make(map[uuid.UUID]*people.Record, 2)
	for _, id := range []uuid.UUID{first, second} {
		rec, err := tx.GetPersonWithAssociations(ctx, workspaceID, id)
		if err != nil {
			return nil, nil, classifyReadError(err)
		}
		records[id] = rec
	}

	return records[keepID], records[absorbID], nil
}

// reconcile fills keep's empty fields from absorb and unions the extension
// fields. keep's values are never overwritten. The returned update only
// carries fields that change.
func reconcile(keep, absorb *people.Record, result *MergeResult) people.Update {
	var u people.Update

	fillable := []struct {
		name   string
		keep   *string
		absorb *string
		dest   **string
	}{
		{"email", keep.Email, absorb.Email, &u.Email},
		{"phone", keep.Phone, absorb.Phone, &u.Phone},
		{"first_name", keep.FirstName, absorb.FirstName, &u.FirstName},
		{"last_name", keep.LastName, absorb.LastName, &u.LastName},
		{"display_name", keep.DisplayName, absorb.DisplayName, &u.DisplayName},
		{"bio", keep.Bio, absorb.Bio, &u.Bio},
		{"location", keep.Location, absorb.Location, &u.Location},
		{"avatar_url", keep.AvatarURL, absorb.AvatarURL, &u.AvatarURL},
	}

	result.FilledFields = []string{}
	for _, f := range fillable {
		if people.IsBlank(f.keep) && !people.IsBlank(f.absorb) {
			v := *f.absorb
			*f.dest = &v
			result.FilledFields = append(result.FilledFields, f.name)
		}
	}

	sources := slices.Clone(keep.Sources)
	result.SourcesAdded = []string{}
	for _, s := range absorb.Sources {
		if !slices.Contains(sources, s) {
			sources = append(sources, s)
			result.SourcesAdded = append(result.SourcesAdded, s)
		}
	}
	if len(result.SourcesAdded) > 0 {
		u.Sources = sources
	}

	sourceIDs, added := mergeMissing(keep.SourceIDs, absorb.SourceIDs)
	if len(added) > 0 {
		u.SourceIDs = sourceIDs
	}
	result.SourceIDsAdded = added

	customData, added := mergeMissing(keep.CustomData, absorb.CustomData)
	if len(added) > 0 {
		u.CustomData = customData
	}
	result.CustomDataAdded = added

	return u
}

// mergeMissing returns keep extended with absorb's entries for keys keep lacks,
// and the sorted list of keys that were added.
func mergeMissing[V any](keep, absorb map[string]V) (map[string]V, []string) {
	merged := make(map[string]V, len(keep)+len(absorb))
	maps.Copy(merged, keep)

	added := []string{}
	for k, v := range absorb {
		if _, ok := merged[k]; ok {
			continue
		}
		merged[k] = v
		added = append(added, k)
	}

	slices.Sort(added)
	return merged, added
}

func missingTags(keep, absorb []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range absorb {
		if !slices.Contains(keep, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func missingProfiles(keep, absorb []people.SocialProfile) (add []people.SocialProfile, dropped int) {
	held := make(map[string]struct{}, len(keep))
	for _, sp := range keep {
		held[sp.Platform] = struct{}{}
	}

	for _, sp := range absorb {
		if _, ok := held[sp.Platform]; ok {
			dropped++
			continue
		}
		held[sp.Platform] = struct{}{}
		add = append(add, sp)
	}

	return add, dropped
}

func (e *engine) archiveAbsorbed(ctx context.Context, absorb *people.Record) (string, error) {
	data, err := json.Marshal(absorb)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := ArchiveKey(e.cfg.ArchivePrefix, absorb.WorkspaceID, absorb.ID)
	if err := e.archive.Upload(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	return key, nil
}

func (e *engine) discardArchive(ctx context.Context, key string) {
	if key == "" || e.archive == nil {
		return
	}

	if err := e.archive.Delete(context.WithoutCancel(ctx), key); err != nil {
		e.logger.Warn("compensating archive delete failed", "key", key, "error", err)
	}
}

// ArchiveKey returns the blob key for an absorbed person's snapshot.
func ArchiveKey(prefix string, workspaceID, personID uuid.UUID) string {
	return path.Join(prefix, workspaceID.String(), personID.String()+".json")
}

func classifyReadError(err error) error {
	switch {
	case errors.Is(err, people.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return wrapUnavailable(err)
	}
}

// classifyMergeError maps a transaction error to the dedupe taxonomy. Errors
// raised before the pair was read mean nothing was attempted; anything later
// means the transaction rolled back part-way.
func classifyMergeError(err error, readDone bool) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrMergeFailed):
		return err
	case !readDone:
		return wrapUnavailable(err)
	default:
		return stepFailed(StepCommit, err)
	}
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
