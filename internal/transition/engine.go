package transition

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"wraptrack/internal/gate"
	"wraptrack/internal/job"
	"wraptrack/internal/notify"
)

// Store is the persistence surface the engine writes through. The commit
// methods move the stage and write the audit record in one transaction, so
// a movement can never land without its record.
type Store interface {
	GetStage(ctx context.Context, jobID string) (job.Stage, job.Status, error)
	CommitAdvance(ctx context.Context, stage job.Stage, status job.Status, record job.ApprovalRecord) error
	CommitSendBack(ctx context.Context, status job.Status, record job.SendBackRecord) error
}

// Engine executes stage transitions against a store and fires milestone
// notifications on success.
type Engine struct {
	store    Store
	notifier notify.Service
	logger   *slog.Logger
	notifyWG sync.WaitGroup
}

// NewEngine wires a transition engine. The notifier may be a noop service;
// notification failures never fail a transition.
func NewEngine(store Store, notifier notify.Service, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, notifier: notifier, logger: logger}
}

// Advance signs the job off its current stage and moves it one stage forward.
// A denied gate result is returned with a nil error; the caller surfaces the
// reason. Leaving the final transitional stage is the close transition and is
// rejected here.
func (e *Engine) Advance(ctx context.Context, j *job.Job, fields gate.Fields, actor, notes string) (gate.Result, error) {
	if j.Status == job.StatusClosed || job.IsTerminal(j.Stage) {
		return gate.Result{}, fmt.Errorf("advance %s: %w", j.ID, ErrInvalidTransition)
	}
	next, ok := job.NextStage(j.Stage)
	if !ok {
		return gate.Result{}, fmt.Errorf("advance %s from %s: %w", j.ID, j.Stage, ErrInvalidTransition)
	}

	result := gate.Check(j.Stage, fields)
	if !result.Allowed {
		return result, nil
	}

	if err := e.ensureFresh(ctx, j); err != nil {
		return gate.Result{}, err
	}

	from := j.Stage
	record, err := buildApproval(j.ID, from, fields, actor, notes)
	if err != nil {
		return gate.Result{}, err
	}
	if err := e.store.CommitAdvance(ctx, next, j.Status, record); err != nil {
		return gate.Result{}, fmt.Errorf("commit advance: %w", err)
	}

	j.Stage = next
	j.UpdatedAt = time.Now().UTC()

	e.logger.Info("stage signed off",
		slog.String("job_id", j.ID),
		slog.String("from", string(from)),
		slog.String("to", string(next)),
		slog.String("actor", actor))
	title := j.Title
	e.notifyAsync(ctx, "stage sign-off", func(ctx context.Context) error {
		return e.notifier.NotifyStageAdvanced(ctx, title, from, next)
	})

	return result, nil
}

// Close moves a job from the final transitional stage into the terminal done
// stage and marks it closed. Only the final approval gate applies.
func (e *Engine) Close(ctx context.Context, j *job.Job, fields gate.Fields, actor, notes string) (gate.Result, error) {
	if j.Status == job.StatusClosed || j.Stage != job.StageSalesClose {
		return gate.Result{}, fmt.Errorf("close %s from %s: %w", j.ID, j.Stage, ErrInvalidTransition)
	}

	result := gate.CheckClose(fields)
	if !result.Allowed {
		return result, nil
	}

	if err := e.ensureFresh(ctx, j); err != nil {
		return gate.Result{}, err
	}

	from := j.Stage
	record, err := buildApproval(j.ID, from, fields, actor, notes)
	if err != nil {
		return gate.Result{}, err
	}
	if err := e.store.CommitAdvance(ctx, job.StageDone, job.StatusClosed, record); err != nil {
		return gate.Result{}, fmt.Errorf("commit close: %w", err)
	}

	j.Stage = job.StageDone
	j.Status = job.StatusClosed
	j.UpdatedAt = time.Now().UTC()

	e.logger.Info("job closed",
		slog.String("job_id", j.ID),
		slog.String("actor", actor))
	title := j.Title
	e.notifyAsync(ctx, "job close", func(ctx context.Context) error {
		return e.notifier.NotifyJobClosed(ctx, title)
	})

	return result, nil
}

// SendBack moves a job one stage backward with a declared reason. The target
// clamps to the first stage, so a send-back from sales_in records a
// same-stage movement. No gate applies and no notification fires, but the
// movement is always recorded.
func (e *Engine) SendBack(ctx context.Context, j *job.Job, reason, notes, actor string) error {
	if j.Status == job.StatusClosed || job.IsTerminal(j.Stage) {
		return fmt.Errorf("send back %s: %w", j.ID, ErrInvalidTransition)
	}
	if !ValidSendBackReason(j.Stage, reason) {
		return fmt.Errorf("send back %s: reason %q not allowed at %s: %w", j.ID, reason, j.Stage, ErrInvalidTransition)
	}

	if err := e.ensureFresh(ctx, j); err != nil {
		return err
	}

	from := j.Stage
	target := job.PrevStage(from)
	record := job.SendBackRecord{
		ID:        uuid.NewString(),
		JobID:     j.ID,
		FromStage: from,
		ToStage:   target,
		Reason:    reason,
		Notes:     notes,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CommitSendBack(ctx, j.Status, record); err != nil {
		return fmt.Errorf("commit send-back: %w", err)
	}

	j.Stage = target
	j.SendBacks = append([]job.SendBackRecord{record}, j.SendBacks...)
	j.UpdatedAt = record.CreatedAt

	e.logger.Info("job sent back",
		slog.String("job_id", j.ID),
		slog.String("from", string(from)),
		slog.String("to", string(target)),
		slog.String("reason", reason),
		slog.String("actor", actor))

	return nil
}

// ensureFresh re-reads the persisted stage and rejects the transition when
// the in-memory job has fallen behind another writer.
func (e *Engine) ensureFresh(ctx context.Context, j *job.Job) error {
	stage, status, err := e.store.GetStage(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("read current stage: %w", err)
	}
	if stage != j.Stage || status != j.Status {
		return fmt.Errorf("job %s is now at %s: %w", j.ID, stage, ErrStaleState)
	}
	return nil
}

func buildApproval(jobID string, stage job.Stage, fields gate.Fields, actor, notes string) (job.ApprovalRecord, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return job.ApprovalRecord{}, fmt.Errorf("encode approval fields: %w", err)
	}
	return job.ApprovalRecord{
		ID:         uuid.NewString(),
		JobID:      jobID,
		Stage:      stage,
		ApprovedBy: actor,
		Notes:      notes,
		FieldsJSON: string(encoded),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// notifyAsync fires a milestone notification on its own goroutine so an
// unreachable endpoint never delays a committed transition. The parent
// context's cancellation is dropped; the HTTP client's timeout still bounds
// the send.
func (e *Engine) notifyAsync(ctx context.Context, event string, send func(context.Context) error) {
	if e.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()
		if err := send(ctx); err != nil {
			e.logger.Warn("notification failed",
				slog.String("event", event),
				slog.Any("error", err))
		}
	}()
}

// Flush blocks until in-flight notifications have finished. Short-lived
// hosts call this before exiting so committed sends are not dropped.
func (e *Engine) Flush() {
	e.notifyWG.Wait()
}
