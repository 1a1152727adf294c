package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wraptrack/internal/job"
)

// execer is satisfied by both *sql.DB and *sql.Tx so the row helpers can run
// standalone or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CommitAdvance moves the job to the given stage and writes the approval
// record in one transaction, so a stage change can never land without its
// audit record.
func (s *Store) CommitAdvance(ctx context.Context, stage job.Stage, status job.Status, record job.ApprovalRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateStage(ctx, tx, record.JobID, stage, status); err != nil {
			return err
		}
		return insertApproval(ctx, tx, record)
	})
}

// CommitSendBack moves the job to the target stage and writes the send-back
// record in one transaction.
func (s *Store) CommitSendBack(ctx context.Context, status job.Status, record job.SendBackRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateStage(ctx, tx, record.JobID, record.ToStage, status); err != nil {
			return err
		}
		return insertSendBack(ctx, tx, record)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

func updateStage(ctx context.Context, ex execer, jobID string, stage job.Stage, status job.Status) error {
	res, err := ex.ExecContext(
		ctx,
		`UPDATE jobs SET stage = ?, status = ?, updated_at = ? WHERE id = ?`,
		stage,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("save stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save stage for %s: %w", jobID, ErrJobNotFound)
	}
	return nil
}

func insertApproval(ctx context.Context, ex execer, record job.ApprovalRecord) error {
	if _, err := ex.ExecContext(
		ctx,
		`INSERT INTO stage_approvals (id, job_id, stage, approved_by, notes, fields_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.JobID,
		record.Stage,
		nullableString(record.ApprovedBy),
		nullableString(record.Notes),
		nullableString(record.FieldsJSON),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func insertSendBack(ctx context.Context, ex execer, record job.SendBackRecord) error {
	if _, err := ex.ExecContext(
		ctx,
		`INSERT INTO send_backs (id, job_id, from_stage, to_stage, reason, notes, actor, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.JobID,
		record.FromStage,
		record.ToStage,
		record.Reason,
		nullableString(record.Notes),
		nullableString(record.Actor),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert send-back: %w", err)
	}
	return nil
}
