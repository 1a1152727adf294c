package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wraptrack/internal/job"
)

const jobColumns = "id, title, customer, stage, status, checklist_json, created_at, updated_at"

// CreateJob inserts a new job at the first pipeline stage.
func (s *Store) CreateJob(ctx context.Context, title, customer string) (*job.Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, title, customer, stage, status, checklist_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		title,
		nullableString(customer),
		job.TransitionalStages()[0],
		job.StatusActive,
		"{}",
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier along with its send-back history,
// newest first. Returns nil when no job matches.
func (s *Store) GetJob(ctx context.Context, id string) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	sendBacks, err := s.ListSendBacks(ctx, id)
	if err != nil {
		return nil, err
	}
	j.SendBacks = sendBacks
	return j, nil
}

// ListJobs returns jobs filtered by status set, or all jobs when no status is
// provided, ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, statuses ...job.Status) ([]*job.Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// GetStage reads only the persisted stage and status of a job.
func (s *Store) GetStage(ctx context.Context, jobID string) (job.Stage, job.Status, error) {
	var (
		stageStr  string
		statusStr string
	)
	err := s.db.QueryRowContext(ctx, `SELECT stage, status FROM jobs WHERE id = ?`, jobID).
		Scan(&stageStr, &statusStr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", fmt.Errorf("get stage for %s: %w", jobID, ErrJobNotFound)
	}
	if err != nil {
		return "", "", fmt.Errorf("get stage: %w", err)
	}
	return job.Stage(stageStr), job.Status(statusStr), nil
}

// SaveStage updates a job's stage and status. Writes are last-write-wins.
func (s *Store) SaveStage(ctx context.Context, jobID string, stage job.Stage, status job.Status) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return updateStage(ctx, s.db, jobID, stage, status)
	})
}

// SaveChecklist replaces a job's manual checkpoint overrides wholesale.
func (s *Store) SaveChecklist(ctx context.Context, jobID string, checklist map[string]job.Override) error {
	if checklist == nil {
		checklist = map[string]job.Override{}
	}
	encoded, err := json.Marshal(checklist)
	if err != nil {
		return fmt.Errorf("encode checklist: %w", err)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET checklist_json = ?, updated_at = ? WHERE id = ?`,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("save checklist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save checklist for %s: %w", jobID, ErrJobNotFound)
	}
	return nil
}

// Remove deletes a job and, via cascade, its audit records.
func (s *Store) Remove(ctx context.Context, jobID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*job.Job, error) {
	var (
		id            string
		title         string
		customer      sql.NullString
		stageStr      string
		statusStr     string
		checklistJSON sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&customer,
		&stageStr,
		&statusStr,
		&checklistJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	j := &job.Job{
		ID:        id,
		Title:     title,
		Customer:  customer.String,
		Stage:     job.Stage(stageStr),
		Status:    job.Status(statusStr),
		Checklist: map[string]job.Override{},
	}
	if checklistJSON.Valid && checklistJSON.String != "" {
		if err := json.Unmarshal([]byte(checklistJSON.String), &j.Checklist); err != nil {
			return nil, fmt.Errorf("decode checklist for %s: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		j.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		j.UpdatedAt = updated
	}
	return j, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
