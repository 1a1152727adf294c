package derive_test

import (
	"testing"
	"time"

	"wraptrack/internal/catalog"
	"wraptrack/internal/derive"
	"wraptrack/internal/job"
)

func TestWaterfallCheckpointsReportAutoDone(t *testing.T) {
	stages := append(job.TransitionalStages(), job.StageDone)
	for _, stage := range stages {
		snap := derive.Derive(stage, nil)
		for id := range catalog.WaterfallSet(stage) {
			state := snap.States[id]
			if !state.Done || !state.Auto {
				t.Errorf("stage %s: checkpoint %s = %+v, want done+auto", stage, id, state)
			}
			if state.By != "" || state.At != nil {
				t.Errorf("stage %s: auto-done checkpoint %s should carry no actor stamp", stage, id)
			}
		}
	}
}

func TestExplicitUncheckWinsOverWaterfall(t *testing.T) {
	overrides := map[string]job.Override{
		"contract_signed": {Done: false, By: "dana", Note: "signature page missing"},
	}
	// production's waterfall includes contract_signed
	snap := derive.Derive(job.StageProduction, overrides)
	state := snap.States["contract_signed"]
	if state.Done {
		t.Fatal("explicit done=false override must win over waterfall membership")
	}
	if state.By != "dana" || state.Note != "signature page missing" {
		t.Fatalf("override metadata not carried: %+v", state)
	}
	if !state.Blocked {
		t.Fatal("unchecked hard stop should be flagged blocked")
	}
}

func TestExplicitDoneCarriesActorStamp(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	overrides := map[string]job.Override{
		"deposit_paid": {Done: true, By: "alex", At: &at},
	}
	snap := derive.Derive(job.StageSalesIn, overrides)
	state := snap.States["deposit_paid"]
	if !state.Done || state.Auto {
		t.Fatalf("deposit_paid = %+v, want explicit done", state)
	}
	if state.By != "alex" || state.At == nil || !state.At.Equal(at) {
		t.Fatalf("actor stamp not carried: %+v", state)
	}
}

func TestCompletionPercentNeverDecreasesAcrossForwardStages(t *testing.T) {
	stages := append(job.TransitionalStages(), job.StageDone)
	prev := -1
	for _, stage := range stages {
		pct := derive.Derive(stage, nil).CompletionPercent()
		if pct < prev {
			t.Fatalf("completion dropped at stage %s: %d -> %d", stage, prev, pct)
		}
		prev = pct
	}
	if prev != 100 {
		t.Fatalf("terminal stage completion = %d, want 100", prev)
	}
}

func TestActiveCheckpointIsFirstNotDone(t *testing.T) {
	snap := derive.Derive(job.StageSalesIn, nil)
	cp, ok := snap.ActiveCheckpoint()
	if !ok || cp.ID != "estimate_sent" {
		t.Fatalf("active checkpoint = %v, %v; want estimate_sent", cp, ok)
	}

	snap = derive.Derive(job.StageDone, nil)
	if cp, ok := snap.ActiveCheckpoint(); ok {
		t.Fatalf("terminal stage should have no active checkpoint, got %s", cp.ID)
	}
}

func TestInstallLockedUntilContractSigned(t *testing.T) {
	// Scenario: fresh job at the first stage, no overrides. The install
	// department waits on the contract_signed hard stop.
	snap := derive.Derive(job.StageSalesIn, nil)
	if got := snap.DepartmentStatus(catalog.DeptInstall); got != derive.DeptLocked {
		t.Fatalf("install status at sales_in = %s, want locked", got)
	}

	// Once the stage's waterfall covers contract_signed the lock lifts,
	// but install stays upcoming until its own checkpoints start.
	snap = derive.Derive(job.StageProduction, nil)
	if !snap.States["contract_signed"].Done {
		t.Fatal("contract_signed should be auto-done at production")
	}
	if got := snap.DepartmentStatus(catalog.DeptInstall); got != derive.DeptUpcoming {
		t.Fatalf("install status at production = %s, want upcoming", got)
	}
}

func TestDepartmentStatusTransitions(t *testing.T) {
	cases := []struct {
		name      string
		stage     job.Stage
		overrides map[string]job.Override
		dept      catalog.Department
		want      derive.DeptStatus
	}{
		{"sales in progress", job.StageSalesIn, nil, catalog.DeptSales, derive.DeptInProgress},
		{"sales complete at production", job.StageProduction, nil, catalog.DeptSales, derive.DeptComplete},
		{"contract blocked while unsigned", job.StageSalesIn, nil, catalog.DeptContract, derive.DeptBlocked},
		{"close upcoming early", job.StageSalesIn, nil, catalog.DeptClose, derive.DeptUpcoming},
		{"close complete at done", job.StageDone, nil, catalog.DeptClose, derive.DeptComplete},
		{
			"install in progress once started",
			job.StageInstall,
			map[string]job.Override{"install_scheduled": {Done: true, By: "kim"}},
			catalog.DeptInstall,
			derive.DeptInProgress,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := derive.Derive(tc.stage, tc.overrides)
			if got := snap.DepartmentStatus(tc.dept); got != tc.want {
				t.Fatalf("DepartmentStatus(%s) = %s, want %s", tc.dept, got, tc.want)
			}
		})
	}
}

func TestContractVerifiedFlaggedAtInstallStage(t *testing.T) {
	snap := derive.Derive(job.StageInstall, nil)
	state := snap.States["contract_verified"]
	if state.Done || !state.Blocked {
		t.Fatalf("contract_verified at install = %+v, want blocked and not done", state)
	}

	// Not flagged before the install stage is reached.
	snap = derive.Derive(job.StageProduction, nil)
	if snap.States["contract_verified"].Blocked {
		t.Fatal("contract_verified should not be flagged before the install stage")
	}
}

func TestStaleOverridesSurviveRegression(t *testing.T) {
	// A send-back does not purge overrides: an explicit done recorded at a
	// later stage remains visible after the job regresses, while
	// waterfall-implied completions silently retract.
	overrides := map[string]job.Override{
		"print_complete": {Done: true, By: "sam"},
	}
	snap := derive.Derive(job.StageProduction, overrides)
	if !snap.States["print_complete"].Done {
		t.Fatal("explicit override should survive a regression")
	}
	if snap.States["laminated_ready"].Done {
		t.Fatal("waterfall completion should retract once the stage window moves back")
	}
}
