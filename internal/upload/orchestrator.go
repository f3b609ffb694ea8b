package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"recruit-console/internal/api"
	"recruit-console/internal/cache"
	"recruit-console/internal/model"
)

var ErrBatchInFlight = errors.New("an upload batch is already in flight")

const (
	DefaultDwell   = time.Second
	DefaultTimeout = 5 * time.Minute
)

type Gateway interface {
	UploadResume(ctx context.Context, jobID string, f api.ResumeFile, onProgress func(api.Progress)) (model.Candidate, error)
}

type Invalidator interface {
	Invalidate(keys ...cache.Key)
}

// Clock drives the phase dwell between simulated processing steps.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Options struct {
	Allow    []string
	Dwell    time.Duration
	Timeout  time.Duration
	Clock    Clock
	Observer func(Event)
	Logger   *slog.Logger
}

type EventType int

const (
	EventStatus EventType = iota
	EventTask
	EventNotice
	EventDone
)

func (t EventType) String() string {
	switch t {
	case EventStatus:
		return "status"
	case EventTask:
		return "task"
	case EventNotice:
		return "notice"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

type Notice struct {
	Level   string
	Title   string
	Message string
}

// Event is delivered to Options.Observer. Status events carry the index and
// phase of the task they describe, or -1 and "" for batch level messages.
type Event struct {
	Type    EventType
	BatchID string
	Index   int
	Phase   string
	Status  string
	Task    model.UploadTask
	Notice  Notice
	Result  *Result
}

type Batch struct {
	ID         string
	JobID      string
	Tasks      []model.UploadTask
	Status     string
	InFlight   bool
	StartedAt  time.Time
	FinishedAt time.Time
}

type Result struct {
	BatchID    string             `json:"batch_id"`
	JobID      string             `json:"job_id"`
	Tasks      []model.UploadTask `json:"tasks"`
	Rejected   []Rejection        `json:"rejected,omitempty"`
	Succeeded  int                `json:"succeeded"`
	Failed     int                `json:"failed"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Orchestrator uploads one batch of resumes at a time, sequentially, and
// invalidates the affected cache keys once the batch ends.
type Orchestrator struct {
	gw    Gateway
	inv   Invalidator
	opts  Options
	allow []string
	clock Clock
	log   *slog.Logger

	// emitMu serializes state changes with their observer calls so events
	// are seen in the order they were applied.
	emitMu  sync.Mutex
	mu      sync.Mutex
	running bool
	batch   *Batch
}

func New(gw Gateway, inv Invalidator, opts Options) *Orchestrator {
	if opts.Dwell < 0 {
		opts.Dwell = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		gw:    gw,
		inv:   inv,
		opts:  opts,
		allow: normalizeAllow(opts.Allow),
		clock: clock,
		log:   log,
	}
}

func (o *Orchestrator) Allow() []string {
	return append([]string(nil), o.allow...)
}

// Snapshot returns a copy of the current batch, or false when there is none.
func (o *Orchestrator) Snapshot() (Batch, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.batch == nil {
		return Batch{}, false
	}
	return copyBatch(o.batch), true
}

// Dismiss clears a finished batch. It does nothing while a batch runs.
func (o *Orchestrator) Dismiss() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running || o.batch == nil {
		return false
	}
	o.batch = nil
	return true
}

func (o *Orchestrator) Run(ctx context.Context, jobID string, files []File) (Result, error) {
	if err := model.CheckJobID(jobID); err != nil {
		return Result{}, err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Result{}, ErrBatchInFlight
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		if o.batch != nil {
			o.batch.InFlight = false
		}
		o.mu.Unlock()
	}()

	var accepted []File
	var rejected []Rejection
	for _, f := range files {
		if reason := screen(f, o.allow); reason != "" {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			continue
		}
		accepted = append(accepted, f)
	}
	for _, r := range rejected {
		o.log.Debug("upload file rejected", "job_id", jobID, "file", r.Name, "reason", r.Reason)
		o.emit(Event{
			Type:  EventNotice,
			Index: -1,
			Notice: Notice{
				Level:   NoticeError,
				Title:   "File rejected",
				Message: fmt.Sprintf("%s: %s", r.Name, r.Reason),
			},
		})
	}
	if len(accepted) == 0 {
		return Result{JobID: jobID, Rejected: rejected}, nil
	}

	batch := &Batch{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Tasks:     make([]model.UploadTask, len(accepted)),
		InFlight:  true,
		StartedAt: time.Now().UTC(),
	}
	for i, f := range accepted {
		batch.Tasks[i] = model.UploadTask{Index: i, Name: f.Name, Size: f.Size, Phase: model.PhaseQueued}
	}
	o.mu.Lock()
	o.batch = batch
	o.mu.Unlock()

	o.log.Debug("upload batch started", "batch_id", batch.ID, "job_id", jobID, "files", len(accepted))
	o.setStatus(-1, "", preparingMessage(len(accepted)))

	for i, f := range accepted {
		if ctx.Err() != nil {
			o.cancelRemaining(i)
			break
		}
		o.uploadOne(ctx, jobID, i, f)
	}

	o.setStatus(-1, "", "Finalizing and updating candidate list...")
	if o.inv != nil {
		o.inv.Invalidate(cache.AfterUpload(jobID)...)
	}

	res := o.finish(rejected)
	o.log.Debug("upload batch finished", "batch_id", res.BatchID, "succeeded", res.Succeeded, "failed", res.Failed)
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("upload batch interrupted: %w", err)
	}
	return res, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, jobID string, i int, f File) {
	o.transition(i, model.PhaseUploading, "")
	o.setStatus(i, model.PhaseUploading, fmt.Sprintf("Uploading %s...", f.Name))

	cand, err := o.send(ctx, jobID, i, f)
	if err != nil {
		msg := failureMessage(ctx, err, o.opts.Timeout)
		o.log.Info("resume upload failed", "job_id", jobID, "file", f.Name, "index", i, "err", err)
		o.transition(i, model.PhaseFailed, msg)
		o.setStatus(i, model.PhaseFailed, fmt.Sprintf("Failed to process %s", f.Name))
		o.emit(Event{
			Type:  EventNotice,
			Index: i,
			Notice: Notice{
				Level:   NoticeError,
				Title:   "Upload failed",
				Message: fmt.Sprintf("Failed to upload %s: %s", f.Name, msg),
			},
		})
		return
	}

	o.apply(func(b *Batch) (Event, bool) {
		b.Tasks[i].CandidateID = cand.ID
		return Event{}, false
	})

	steps := []struct {
		phase  string
		status string
	}{
		{model.PhaseAnalyzing, fmt.Sprintf("Analyzing %s using AI...", f.Name)},
		{model.PhaseExtracting, fmt.Sprintf("Extracting information from %s...", f.Name)},
		{model.PhaseScoring, "Computing skills and experience scores..."},
	}
	for _, s := range steps {
		o.transition(i, s.phase, "")
		o.setStatus(i, s.phase, s.status)
		o.dwell(ctx)
	}
	o.transition(i, model.PhaseDone, "")
}

func (o *Orchestrator) send(ctx context.Context, jobID string, i int, f File) (model.Candidate, error) {
	fctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if f.Open != nil {
		rc, err := f.Open()
		if err != nil {
			return model.Candidate{}, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		body = rc
	}

	onProgress := func(p api.Progress) {
		o.apply(func(b *Batch) (Event, bool) {
			t := &b.Tasks[i]
			before := t.Progress
			model.SetTransferProgress(t, p.Loaded, p.Total)
			if t.Progress == before {
				return Event{}, false
			}
			return Event{Type: EventTask, Index: i, Phase: t.Phase, Task: *t}, true
		})
	}
	return o.gw.UploadResume(fctx, jobID, api.ResumeFile{Name: f.Name, Size: f.Size, Body: body}, onProgress)
}

func (o *Orchestrator) dwell(ctx context.Context) {
	if o.opts.Dwell <= 0 || ctx.Err() != nil {
		return
	}
	select {
	case <-ctx.Done():
	case <-o.clock.After(o.opts.Dwell):
	}
}

func (o *Orchestrator) cancelRemaining(from int) {
	o.mu.Lock()
	n := len(o.batch.Tasks)
	o.mu.Unlock()
	for i := from; i < n; i++ {
		o.transition(i, model.PhaseFailed, "cancelled")
	}
}

func (o *Orchestrator) finish(rejected []Rejection) Result {
	var res Result
	o.apply(func(b *Batch) (Event, bool) {
		b.FinishedAt = time.Now().UTC()
		b.InFlight = false
		res = Result{
			BatchID:    b.ID,
			JobID:      b.JobID,
			Tasks:      append([]model.UploadTask(nil), b.Tasks...),
			Rejected:   rejected,
			StartedAt:  b.StartedAt,
			FinishedAt: b.FinishedAt,
		}
		for _, t := range b.Tasks {
			switch t.Phase {
			case model.PhaseDone:
				res.Succeeded++
			case model.PhaseFailed:
				res.Failed++
			}
		}
		b.Status = completionMessage(res)
		return Event{Type: EventStatus, Index: -1, Status: b.Status}, true
	})

	level := NoticeInfo
	if res.Failed > 0 {
		level = NoticeError
	}
	o.emit(Event{
		Type:   EventNotice,
		Index:  -1,
		Notice: Notice{Level: level, Title: "Upload complete", Message: completionMessage(res)},
	})
	o.emit(Event{Type: EventDone, Index: -1, Result: &res})
	return res
}

func (o *Orchestrator) transition(i int, phase, errMsg string) {
	o.apply(func(b *Batch) (Event, bool) {
		t := &b.Tasks[i]
		if err := model.TransitionTask(t, phase, errMsg); err != nil {
			o.log.Error("upload task transition rejected", "err", err)
			return Event{}, false
		}
		return Event{Type: EventTask, Index: i, Phase: t.Phase, Task: *t}, true
	})
}

func (o *Orchestrator) setStatus(i int, phase, status string) {
	o.apply(func(b *Batch) (Event, bool) {
		b.Status = status
		return Event{Type: EventStatus, Index: i, Phase: phase, Status: status}, true
	})
}

// apply runs fn against the current batch and delivers the event it returns.
func (o *Orchestrator) apply(fn func(b *Batch) (Event, bool)) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()

	o.mu.Lock()
	if o.batch == nil {
		o.mu.Unlock()
		return
	}
	ev, ok := fn(o.batch)
	ev.BatchID = o.batch.ID
	o.mu.Unlock()

	if ok && o.opts.Observer != nil {
		o.opts.Observer(ev)
	}
}

func (o *Orchestrator) emit(ev Event) {
	o.emitMu.Lock()
	defer o.emitMu.Unlock()
	if ev.BatchID == "" {
		o.mu.Lock()
		if o.batch != nil && o.running {
			ev.BatchID = o.batch.ID
		}
		o.mu.Unlock()
	}
	if o.opts.Observer != nil {
		o.opts.Observer(ev)
	}
}

func failureMessage(parent context.Context, err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Sprintf("timeout: upload exceeded %s", timeout)
	}
	msg := api.Detail(err)
	if msg == "" {
		return "Unknown error"
	}
	return msg
}

func preparingMessage(n int) string {
	if n == 1 {
		return "Preparing to process 1 file..."
	}
	return fmt.Sprintf("Preparing to process %d files...", n)
}

func completionMessage(r Result) string {
	total := r.Succeeded + r.Failed
	switch {
	case r.Failed == 0:
		return "All resumes uploaded successfully!"
	case r.Succeeded == 0:
		return fmt.Sprintf("No resumes uploaded; %d of %d failed", r.Failed, total)
	default:
		return fmt.Sprintf("Uploaded %d of %d resumes; %d failed", r.Succeeded, total, r.Failed)
	}
}

func copyBatch(b *Batch) Batch {
	out := *b
	out.Tasks = append([]model.UploadTask(nil), b.Tasks...)
	return out
}
