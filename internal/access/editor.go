package access

import (
	"context"
	"fmt"

	"wraptrack/internal/catalog"
	"wraptrack/internal/job"
)

// ChecklistStore persists a job's manual checkpoint overrides.
type ChecklistStore interface {
	SaveChecklist(ctx context.Context, jobID string, checklist map[string]job.Override) error
}

// Editor applies manual checkpoint overrides while a session is unlocked.
// Every mutation is persisted before the in-memory job is updated; a locked
// session makes every call a silent no-op.
type Editor struct {
	session *Session
	store   ChecklistStore
}

// NewEditor wires an editor to its session and store.
func NewEditor(session *Session, store ChecklistStore) *Editor {
	return &Editor{session: session, store: store}
}

// SetDone marks a checkpoint manually complete with actor attribution.
// Returns false with no error when the session is locked.
func (e *Editor) SetDone(ctx context.Context, j *job.Job, checkpointID, actor, note string) (bool, error) {
	if !e.session.Unlocked() {
		return false, nil
	}
	now := e.session.clock.Now().UTC()
	return true, e.apply(ctx, j, checkpointID, &job.Override{Done: true, By: actor, At: &now, Note: note})
}

// SetUndone records an explicit not-done override, which wins over any
// stage-implied completion. Un-completing clears the attribution rather
// than crediting whoever reversed it. Returns false with no error when
// locked.
func (e *Editor) SetUndone(ctx context.Context, j *job.Job, checkpointID string) (bool, error) {
	if !e.session.Unlocked() {
		return false, nil
	}
	return true, e.apply(ctx, j, checkpointID, &job.Override{Done: false})
}

// Clear removes a checkpoint's manual override so the stage waterfall decides
// again. Returns false with no error when locked.
func (e *Editor) Clear(ctx context.Context, j *job.Job, checkpointID string) (bool, error) {
	if !e.session.Unlocked() {
		return false, nil
	}
	return true, e.apply(ctx, j, checkpointID, nil)
}

// apply builds the updated checklist, persists it, and only then swaps it
// onto the job. A nil override deletes the entry.
func (e *Editor) apply(ctx context.Context, j *job.Job, checkpointID string, override *job.Override) error {
	if _, ok := catalog.Lookup(checkpointID); !ok {
		return fmt.Errorf("unknown checkpoint %q", checkpointID)
	}

	updated := make(map[string]job.Override, len(j.Checklist)+1)
	for id, ov := range j.Checklist {
		updated[id] = ov
	}
	if override == nil {
		delete(updated, checkpointID)
	} else {
		updated[checkpointID] = *override
	}

	if err := e.store.SaveChecklist(ctx, j.ID, updated); err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	j.Checklist = updated
	return nil
}
