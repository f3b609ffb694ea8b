package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recruit-console/internal/model"
	"recruit-console/internal/upload"
)

const DefaultLimit = 20

// Fixed width so timestamps order correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

type Store struct {
	db *sql.DB
}

type Batch struct {
	ID         string             `json:"id"`
	JobID      string             `json:"job_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Total      int                `json:"total"`
	Succeeded  int                `json:"succeeded"`
	Failed     int                `json:"failed"`
	Rejected   int                `json:"rejected"`
	Tasks      []model.UploadTask `json:"tasks,omitempty"`
}

type Filter struct {
	JobID string
	Limit int
	// WithTasks loads the per-file rows of every returned batch.
	WithTasks bool
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished batch. Results without a batch (nothing was
// accepted for upload) are skipped.
func (s *Store) Record(ctx context.Context, res upload.Result) error {
	if res.BatchID == "" {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record batch: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO upload_batches (id, job_id, started_at, finished_at, total, succeeded, failed, rejected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.BatchID, res.JobID,
		res.StartedAt.UTC().Format(timeFormat), res.FinishedAt.UTC().Format(timeFormat),
		len(res.Tasks), res.Succeeded, res.Failed, len(res.Rejected),
	)
	if err != nil {
		return fmt.Errorf("record batch: insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO upload_tasks (batch_id, idx, file_name, size, progress, phase, error, candidate_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record batch: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range res.Tasks {
		if !model.IsKnownPhase(t.Phase) {
			return fmt.Errorf("record batch: task %d has unknown phase %q", t.Index, t.Phase)
		}
		if _, err := stmt.ExecContext(ctx, res.BatchID, t.Index, t.Name, t.Size, t.Progress, t.Phase,
			nullString(t.Error), nullString(t.CandidateID)); err != nil {
			return fmt.Errorf("record batch: insert task %d: %w", t.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record batch: commit: %w", err)
	}
	return nil
}

// List returns batches newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Batch, error) {
	query := `SELECT id, job_id, started_at, finished_at, total, succeeded, failed, rejected
		FROM upload_batches WHERE 1=1`

	var args []any
	if f.JobID != "" {
		query += " AND job_id = ?"
		args = append(args, f.JobID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Batch
	for rows.Next() {
		var b Batch
		var startedStr, finishedStr string
		if err := rows.Scan(&b.ID, &b.JobID, &startedStr, &finishedStr,
			&b.Total, &b.Succeeded, &b.Failed, &b.Rejected); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartedAt, _ = time.Parse(timeFormat, startedStr)
		b.FinishedAt, _ = time.Parse(timeFormat, finishedStr)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f.WithTasks {
		for i := range out {
			tasks, err := s.tasks(ctx, out[i].ID)
			if err != nil {
				return nil, err
			}
			out[i].Tasks = tasks
		}
	}
	return out, nil
}

func (s *Store) tasks(ctx context.Context, batchID string) ([]model.UploadTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, file_name, size, progress, phase, error, candidate_id
		FROM upload_tasks WHERE batch_id = ? ORDER BY idx ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.UploadTask
	for rows.Next() {
		var t model.UploadTask
		var errMsg, candID sql.NullString
		if err := rows.Scan(&t.Index, &t.Name, &t.Size, &t.Progress, &t.Phase, &errMsg, &candID); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Error = errMsg.String
		t.CandidateID = candID.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
