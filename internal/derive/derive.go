package derive

import (
	"math"
	"time"

	"wraptrack/internal/catalog"
	"wraptrack/internal/job"
)

// CheckpointState is the resolved state of one checkpoint.
type CheckpointState struct {
	Done    bool
	Auto    bool
	Blocked bool
	By      string
	At      *time.Time
	Note    string
}

// DeptStatus summarizes a department's overall readiness.
type DeptStatus string

const (
	DeptComplete   DeptStatus = "complete"
	DeptBlocked    DeptStatus = "blocked"
	DeptInProgress DeptStatus = "in_progress"
	DeptLocked     DeptStatus = "locked"
	DeptUpcoming   DeptStatus = "upcoming"
)

// Snapshot is the full derived view of a job's checklist at one stage.
type Snapshot struct {
	Stage  job.Stage
	States map[string]CheckpointState

	doneCount int
}

// Derive resolves every catalog checkpoint against the overrides and the
// stage's waterfall set. Resolution priority per checkpoint:
//
//  1. override with Done=false: not done (explicit uncheck wins over the
//     waterfall), carrying by/at/note
//  2. override with Done=true: done, carrying by/at
//  3. no override, id in the waterfall set: done, Auto
//  4. otherwise: not done
//
// Hard-stop checkpoints that are not done are flagged Blocked, as are
// checkpoints named by a supplementary block rule once the job has reached
// that rule's stage.
func Derive(stage job.Stage, overrides map[string]job.Override) Snapshot {
	snap := Snapshot{
		Stage:  stage,
		States: make(map[string]CheckpointState, catalog.Count()),
	}

	for _, cp := range catalog.Checkpoints() {
		var state CheckpointState
		if ov, ok := overrides[cp.ID]; ok {
			if ov.Done {
				state = CheckpointState{Done: true, By: ov.By, At: ov.At}
			} else {
				state = CheckpointState{Done: false, By: ov.By, At: ov.At, Note: ov.Note}
			}
		} else if catalog.WaterfallContains(stage, cp.ID) {
			state = CheckpointState{Done: true, Auto: true}
		}

		if cp.HardStop && !state.Done {
			state.Blocked = true
		}
		if state.Done {
			snap.doneCount++
		}
		snap.States[cp.ID] = state
	}

	for _, rule := range catalog.BlockRules() {
		if stage != rule.Stage {
			continue
		}
		state := snap.States[rule.CheckpointID]
		if !state.Done {
			state.Blocked = true
			snap.States[rule.CheckpointID] = state
		}
	}

	return snap
}

// CompletionPercent returns the rounded share of done checkpoints.
func (s Snapshot) CompletionPercent() int {
	total := catalog.Count()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.doneCount) / float64(total) * 100))
}

// ActiveCheckpoint returns the first not-done checkpoint in catalog order,
// or false when every checkpoint is done.
func (s Snapshot) ActiveCheckpoint() (catalog.Checkpoint, bool) {
	for _, cp := range catalog.Checkpoints() {
		if !s.States[cp.ID].Done {
			return cp, true
		}
	}
	return catalog.Checkpoint{}, false
}

// DepartmentStatus classifies a department:
//
//   - locked: the department waits on a prior hard stop that is not done,
//     and none of its own checkpoints have started
//   - complete: every checkpoint done
//   - blocked: a hard stop inside the department is flagged blocked
//   - in_progress: some but not all checkpoints done
//   - upcoming: nothing done yet
func (s Snapshot) DepartmentStatus(dept catalog.Department) DeptStatus {
	cps := catalog.ByDepartment(dept)

	allDone := true
	anyDone := false
	hardBlock := false
	for _, cp := range cps {
		state := s.States[cp.ID]
		if state.Done {
			anyDone = true
		} else {
			allDone = false
		}
		if cp.HardStop && state.Blocked {
			hardBlock = true
		}
	}

	if depID, ok := catalog.HardStopDependency(dept); ok {
		if !s.States[depID].Done && !anyDone {
			return DeptLocked
		}
	}
	switch {
	case allDone && len(cps) > 0:
		return DeptComplete
	case hardBlock:
		return DeptBlocked
	case anyDone:
		return DeptInProgress
	default:
		return DeptUpcoming
	}
}
