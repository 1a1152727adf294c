package transition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wraptrack/internal/gate"
	"wraptrack/internal/job"
)

type fakeStore struct {
	stage     job.Stage
	status    job.Status
	approvals []job.ApprovalRecord
	sendBacks []job.SendBackRecord
	saveErr   error
}

func (f *fakeStore) GetStage(context.Context, string) (job.Stage, job.Status, error) {
	return f.stage, f.status, nil
}

func (f *fakeStore) CommitAdvance(_ context.Context, stage job.Stage, status job.Status, record job.ApprovalRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stage = stage
	f.status = status
	f.approvals = append(f.approvals, record)
	return nil
}

func (f *fakeStore) CommitSendBack(_ context.Context, status job.Status, record job.SendBackRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stage = record.ToStage
	f.status = status
	f.sendBacks = append(f.sendBacks, record)
	return nil
}

type failingNotifier struct{ calls atomic.Int64 }

func (f *failingNotifier) NotifyStageAdvanced(context.Context, string, job.Stage, job.Stage) error {
	f.calls.Add(1)
	return errors.New("ntfy unreachable")
}

func (f *failingNotifier) NotifyJobClosed(context.Context, string) error {
	f.calls.Add(1)
	return errors.New("ntfy unreachable")
}

func (f *failingNotifier) TestNotification(context.Context) error { return nil }

// blockingNotifier holds NotifyStageAdvanced until release is closed.
type blockingNotifier struct {
	release chan struct{}
	calls   atomic.Int64
}

func (b *blockingNotifier) NotifyStageAdvanced(context.Context, string, job.Stage, job.Stage) error {
	<-b.release
	b.calls.Add(1)
	return nil
}

func (b *blockingNotifier) NotifyJobClosed(context.Context, string) error { return nil }
func (b *blockingNotifier) TestNotification(context.Context) error        { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJob(stage job.Stage) *job.Job {
	return &job.Job{
		ID:        "job-1",
		Title:     "2019 Sprinter full wrap",
		Customer:  "Acme Fleet",
		Stage:     stage,
		Status:    job.StatusActive,
		Checklist: map[string]job.Override{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestAdvanceMovesOneStageForward(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesIn)

	fields := gate.Fields{CustomerName: "Acme Fleet", SalePrice: 4200}
	result, err := engine.Advance(context.Background(), j, fields, "dana", "deposit received")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowed result, got denial %q", result.Reason)
	}
	if j.Stage != job.StageProduction {
		t.Fatalf("expected job at production, got %s", j.Stage)
	}
	if store.stage != job.StageProduction {
		t.Fatalf("expected store at production, got %s", store.stage)
	}
	if len(store.approvals) != 1 {
		t.Fatalf("expected 1 approval record, got %d", len(store.approvals))
	}
	approval := store.approvals[0]
	if approval.Stage != job.StageSalesIn {
		t.Errorf("approval should record the signed-off stage, got %s", approval.Stage)
	}
	if approval.ApprovedBy != "dana" || approval.Notes != "deposit received" {
		t.Errorf("unexpected approval attribution: %+v", approval)
	}
	if !strings.Contains(approval.FieldsJSON, "Acme Fleet") {
		t.Errorf("approval should snapshot the gate fields, got %s", approval.FieldsJSON)
	}
}

func TestAdvanceDeniedByGateWritesNothing(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesIn)

	result, err := engine.Advance(context.Background(), j, gate.Fields{}, "dana", "")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if result.Allowed {
		t.Fatal("expected gate denial")
	}
	if result.Predicate != "customer_name" {
		t.Errorf("expected customer_name to fail first, got %s", result.Predicate)
	}
	if j.Stage != job.StageSalesIn || store.stage != job.StageSalesIn {
		t.Error("denied advance must not move the job")
	}
	if len(store.approvals) != 0 {
		t.Error("denied advance must not append approvals")
	}
}

func TestAdvanceRejectedAtFinalStage(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesClose, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesClose)

	_, err := engine.Advance(context.Background(), j, gate.Fields{}, "dana", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdvanceRejectedWhenClosed(t *testing.T) {
	store := &fakeStore{stage: job.StageDone, status: job.StatusClosed}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageDone)
	j.Status = job.StatusClosed

	_, err := engine.Advance(context.Background(), j, gate.Fields{}, "dana", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdvanceDetectsStaleState(t *testing.T) {
	store := &fakeStore{stage: job.StageInstall, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageProduction)

	_, err := engine.Advance(context.Background(), j, gate.Fields{LinearFeetPrinted: 120}, "mike", "")
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
	if j.Stage != job.StageProduction {
		t.Error("stale advance must not mutate the job")
	}
}

func TestAdvanceSaveFailureLeavesJobUntouched(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive, saveErr: errors.New("disk full")}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesIn)

	_, err := engine.Advance(context.Background(), j, gate.Fields{CustomerName: "Acme", SalePrice: 100}, "dana", "")
	if err == nil {
		t.Fatal("expected save error to surface")
	}
	if j.Stage != job.StageSalesIn {
		t.Error("failed persistence must not mutate the job")
	}
}

func TestCloseRequiresFinalApproval(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesClose, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesClose)

	result, err := engine.Close(context.Background(), j, gate.Fields{}, "dana", "")
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if result.Allowed {
		t.Fatal("expected close denial without final approval")
	}
	if j.Stage != job.StageSalesClose || j.Status != job.StatusActive {
		t.Error("denied close must not mutate the job")
	}
}

func TestCloseMovesJobToDone(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesClose, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesClose)

	result, err := engine.Close(context.Background(), j, gate.Fields{FinalApproved: true, AdjGPM: 0.42}, "dana", "good margin")
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowed close, got %q", result.Reason)
	}
	if j.Stage != job.StageDone || j.Status != job.StatusClosed {
		t.Fatalf("expected done/closed, got %s/%s", j.Stage, j.Status)
	}
	if store.stage != job.StageDone || store.status != job.StatusClosed {
		t.Fatalf("expected store done/closed, got %s/%s", store.stage, store.status)
	}
	if len(store.approvals) != 1 || store.approvals[0].Stage != job.StageSalesClose {
		t.Errorf("expected a sales_close approval record, got %+v", store.approvals)
	}
}

func TestCloseRejectedOutsideFinalStage(t *testing.T) {
	store := &fakeStore{stage: job.StageInstall, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageInstall)

	_, err := engine.Close(context.Background(), j, gate.Fields{FinalApproved: true}, "dana", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSendBackMovesOneStageBack(t *testing.T) {
	store := &fakeStore{stage: job.StageProdReview, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageProdReview)

	err := engine.SendBack(context.Background(), j, "Bubbles/lifting", "hood panel lifting at edges", "mike")
	if err != nil {
		t.Fatalf("SendBack failed: %v", err)
	}
	if j.Stage != job.StageInstall {
		t.Fatalf("expected job back at install, got %s", j.Stage)
	}
	if len(store.sendBacks) != 1 {
		t.Fatalf("expected 1 send-back record, got %d", len(store.sendBacks))
	}
	record := store.sendBacks[0]
	if record.FromStage != job.StageProdReview || record.ToStage != job.StageInstall {
		t.Errorf("unexpected send-back movement: %+v", record)
	}
	if record.Reason != "Bubbles/lifting" || record.Actor != "mike" {
		t.Errorf("unexpected send-back attribution: %+v", record)
	}
	if len(j.SendBacks) != 1 || j.SendBacks[0].ID != record.ID {
		t.Error("send-back record should be prepended to the job history")
	}
}

func TestSendBackRejectsUndeclaredReason(t *testing.T) {
	store := &fakeStore{stage: job.StageInstall, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageInstall)

	err := engine.SendBack(context.Background(), j, "Quality issue", "", "mike")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for foreign reason, got %v", err)
	}
	if len(store.sendBacks) != 0 {
		t.Error("rejected send-back must not be recorded")
	}
}

func TestSendBackClampsAtFirstStage(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageSalesIn)

	if err := engine.SendBack(context.Background(), j, ReasonOther, "", "dana"); err != nil {
		t.Fatalf("send-back from the first stage should clamp, got %v", err)
	}
	if j.Stage != job.StageSalesIn {
		t.Errorf("job should stay at sales_in, got %s", j.Stage)
	}
	if len(store.sendBacks) != 1 {
		t.Fatalf("clamped send-back should still be recorded, got %d records", len(store.sendBacks))
	}
	record := store.sendBacks[0]
	if record.FromStage != job.StageSalesIn || record.ToStage != job.StageSalesIn {
		t.Errorf("record should show a same-stage movement, got %s -> %s", record.FromStage, record.ToStage)
	}
}

func TestSendBackPreservesChecklistOverrides(t *testing.T) {
	store := &fakeStore{stage: job.StageProduction, status: job.StatusActive}
	engine := NewEngine(store, nil, quietLogger())
	j := newTestJob(job.StageProduction)
	j.Checklist["deposit_paid"] = job.Override{Done: true, By: "dana"}

	if err := engine.SendBack(context.Background(), j, "Price needs adjustment", "", "dana"); err != nil {
		t.Fatalf("SendBack failed: %v", err)
	}
	if _, ok := j.Checklist["deposit_paid"]; !ok {
		t.Error("send-back must not purge checklist overrides")
	}
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive}
	notifier := &failingNotifier{}
	engine := NewEngine(store, notifier, quietLogger())
	j := newTestJob(job.StageSalesIn)

	_, err := engine.Advance(context.Background(), j, gate.Fields{CustomerName: "Acme", SalePrice: 100}, "dana", "")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	engine.Flush()
	if got := notifier.calls.Load(); got != 1 {
		t.Fatalf("expected notifier to be called once, got %d", got)
	}
	if j.Stage != job.StageProduction {
		t.Error("notification failure must not roll back the transition")
	}
}

func TestAdvanceReturnsBeforeSlowNotification(t *testing.T) {
	store := &fakeStore{stage: job.StageSalesIn, status: job.StatusActive}
	release := make(chan struct{})
	notifier := &blockingNotifier{release: release}
	engine := NewEngine(store, notifier, quietLogger())
	j := newTestJob(job.StageSalesIn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Advance(context.Background(), j, gate.Fields{CustomerName: "Acme", SalePrice: 100}, "dana", ""); err != nil {
			t.Errorf("Advance failed: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("advance should not wait for the notification")
	}
	close(release)
	engine.Flush()
	if got := notifier.calls.Load(); got != 1 {
		t.Fatalf("expected the notification to be delivered, got %d calls", got)
	}
}

func TestSendBackReasonsFallBackToOther(t *testing.T) {
	reasons := SendBackReasons(job.StageSalesIn)
	if len(reasons) != 1 || reasons[0] != ReasonOther {
		t.Fatalf("expected fallback [Other], got %v", reasons)
	}
	if !ValidSendBackReason(job.StageProdReview, "Wrong vehicle") {
		t.Error("declared reason should validate")
	}
	if ValidSendBackReason(job.StageProdReview, "wrong vehicle") {
		t.Error("reason matching is exact")
	}
}
