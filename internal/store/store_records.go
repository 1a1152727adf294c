package store

import (
	"context"
	"database/sql"
	"fmt"

	"wraptrack/internal/job"
)

// AppendApproval writes a stage sign-off audit record. Records are never
// updated or deleted while the job exists.
func (s *Store) AppendApproval(ctx context.Context, record job.ApprovalRecord) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return insertApproval(ctx, s.db, record)
	})
}

// ListApprovals returns a job's sign-off records, newest first.
func (s *Store) ListApprovals(ctx context.Context, jobID string) ([]job.ApprovalRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, job_id, stage, approved_by, notes, fields_json, created_at
         FROM stage_approvals WHERE job_id = ? ORDER BY created_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var records []job.ApprovalRecord
	for rows.Next() {
		var (
			record     job.ApprovalRecord
			stageStr   string
			approvedBy sql.NullString
			notes      sql.NullString
			fieldsJSON sql.NullString
			createdRaw sql.NullString
		)
		if err := rows.Scan(
			&record.ID,
			&record.JobID,
			&stageStr,
			&approvedBy,
			&notes,
			&fieldsJSON,
			&createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		record.Stage = job.Stage(stageStr)
		record.ApprovedBy = approvedBy.String
		record.Notes = notes.String
		record.FieldsJSON = fieldsJSON.String
		if created, err := parseTimeString(createdRaw.String); err == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AppendSendBack writes a send-back audit record.
func (s *Store) AppendSendBack(ctx context.Context, record job.SendBackRecord) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return insertSendBack(ctx, s.db, record)
	})
}

// ListSendBacks returns a job's send-back records, newest first.
func (s *Store) ListSendBacks(ctx context.Context, jobID string) ([]job.SendBackRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, job_id, from_stage, to_stage, reason, notes, actor, created_at
         FROM send_backs WHERE job_id = ? ORDER BY created_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list send-backs: %w", err)
	}
	defer rows.Close()

	var records []job.SendBackRecord
	for rows.Next() {
		var (
			record     job.SendBackRecord
			fromStage  string
			toStage    string
			notes      sql.NullString
			actor      sql.NullString
			createdRaw sql.NullString
		)
		if err := rows.Scan(
			&record.ID,
			&record.JobID,
			&fromStage,
			&toStage,
			&record.Reason,
			&notes,
			&actor,
			&createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan send-back: %w", err)
		}
		record.FromStage = job.Stage(fromStage)
		record.ToStage = job.Stage(toStage)
		record.Notes = notes.String
		record.Actor = actor.String
		if created, err := parseTimeString(createdRaw.String); err == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
