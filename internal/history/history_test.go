package history

import (
	"context"
	"testing"
	"time"

	"recruit-console/internal/model"
	"recruit-console/internal/upload"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testResult(id, jobID string, started time.Time) upload.Result {
	return upload.Result{
		BatchID: id,
		JobID:   jobID,
		Tasks: []model.UploadTask{
			{Index: 0, Name: "a.pdf", Size: 1200, Progress: 100, Phase: model.PhaseDone, CandidateID: "c1"},
			{Index: 1, Name: "b.pdf", Size: 800, Progress: 30, Phase: model.PhaseFailed, Error: "corrupt file"},
		},
		Rejected:   []upload.Rejection{{Name: "notes.txt", Reason: "unsupported file type .txt"}},
		Succeeded:  1,
		Failed:     1,
		StartedAt:  started,
		FinishedAt: started.Add(5 * time.Second),
	}
}

func TestRecord_And_List(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := s.Record(ctx, testResult("b1", "507f1f77bcf86cd799439011", start)); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := s.List(ctx, Filter{WithTasks: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(got))
	}
	b := got[0]
	if b.Total != 2 || b.Succeeded != 1 || b.Failed != 1 || b.Rejected != 1 {
		t.Errorf("unexpected totals: %+v", b)
	}
	if !b.StartedAt.Equal(start) {
		t.Errorf("started_at mismatch: %v", b.StartedAt)
	}
	if len(b.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(b.Tasks))
	}
	if b.Tasks[0].CandidateID != "c1" || b.Tasks[0].Error != "" {
		t.Errorf("unexpected first task: %+v", b.Tasks[0])
	}
	if b.Tasks[1].Error != "corrupt file" || b.Tasks[1].Progress != 30 {
		t.Errorf("unexpected second task: %+v", b.Tasks[1])
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	results := []upload.Result{
		testResult("b1", "507f1f77bcf86cd799439011", start),
		testResult("b2", "5f1d7a3e9b1e8a0012345678", start.Add(time.Minute)),
		testResult("b3", "507f1f77bcf86cd799439011", start.Add(2*time.Minute)),
	}
	for _, r := range results {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.BatchID, err)
		}
	}

	got, err := s.List(ctx, Filter{JobID: "507f1f77bcf86cd799439011"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b3" || got[1].ID != "b1" {
		t.Fatalf("unexpected batches: %+v", got)
	}
	if got[0].Tasks != nil {
		t.Errorf("tasks should not load without WithTasks")
	}

	got, err = s.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list limit: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b3" {
		t.Fatalf("unexpected limited batches: %+v", got)
	}
}

func TestRecord_SkipsEmptyResult(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, upload.Result{JobID: "507f1f77bcf86cd799439011"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no batches, got %d", len(got))
	}
}

func TestRecord_DuplicateBatchFails(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	r := testResult("b1", "507f1f77bcf86cd799439011", time.Now().UTC())

	if err := s.Record(ctx, r); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, r); err == nil {
		t.Fatal("expected duplicate batch id to fail")
	}
}

func TestRecord_RejectsUnknownPhase(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	r := testResult("b1", "507f1f77bcf86cd799439011", time.Now().UTC())
	r.Tasks[1].Phase = "paused"

	if err := s.Record(ctx, r); err == nil {
		t.Fatal("expected unknown phase to fail")
	}
	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected rolled back batch, got %d", len(got))
	}
}
