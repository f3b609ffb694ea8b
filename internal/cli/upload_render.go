package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"recruit-console/internal/model"
	"recruit-console/internal/upload"
)

const (
	renderInterval = 700 * time.Millisecond
	maxEvents      = 8
	barWidth       = 20
)

// uploadRenderer draws orchestrator events on a terminal. With live set it
// redraws in place: one line for a single file, a dashboard for batches.
// Otherwise it prints status changes and notices as plain lines.
type uploadRenderer struct {
	out  io.Writer
	live bool
	now  func() time.Time

	mu      sync.Mutex
	tasks   []model.UploadTask
	status  string
	events  []string
	started time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func newUploadRenderer(out io.Writer, live bool) *uploadRenderer {
	return &uploadRenderer{
		out:  out,
		live: live,
		now:  time.Now,
		stop: make(chan struct{}),
	}
}

func (r *uploadRenderer) Start() {
	if !r.live {
		return
	}
	go func() {
		t := time.NewTicker(renderInterval)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C:
				r.draw()
			}
		}
	}()
}

// Stop ends the redraw loop and leaves the final frame on screen.
func (r *uploadRenderer) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		if r.live {
			r.draw()
			r.mu.Lock()
			single := len(r.tasks) <= 1
			r.mu.Unlock()
			if single {
				fmt.Fprintln(r.out)
			}
		}
	})
}

// Observe is the orchestrator observer. It runs on the upload goroutine.
func (r *uploadRenderer) Observe(ev upload.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case upload.EventStatus:
		r.status = ev.Status
		if r.started.IsZero() {
			r.started = r.now()
		}
		if !r.live {
			fmt.Fprintln(r.out, ev.Status)
		}
	case upload.EventTask:
		for len(r.tasks) <= ev.Index {
			r.tasks = append(r.tasks, model.UploadTask{Index: len(r.tasks), Phase: model.PhaseQueued})
		}
		if ev.Index >= 0 {
			r.tasks[ev.Index] = ev.Task
		}
	case upload.EventNotice:
		line := noticeLine(ev.Notice)
		r.events = append([]string{line}, r.events...)
		if len(r.events) > maxEvents {
			r.events = r.events[:maxEvents]
		}
		if !r.live {
			fmt.Fprintln(r.out, line)
		}
	case upload.EventDone:
		if ev.Result != nil {
			r.tasks = append([]model.UploadTask(nil), ev.Result.Tasks...)
		}
	}
}

func noticeLine(n upload.Notice) string {
	prefix := ""
	if n.Level == upload.NoticeError {
		prefix = "error: "
	}
	return fmt.Sprintf("%s%s: %s", prefix, n.Title, n.Message)
}

func (r *uploadRenderer) draw() {
	r.mu.Lock()
	var frame string
	if len(r.tasks) <= 1 {
		frame = "\r\033[2K" + r.singleLine()
	} else {
		frame = "\033[H\033[2J" + r.dashboard()
	}
	r.mu.Unlock()
	fmt.Fprint(r.out, frame)
}

func (r *uploadRenderer) singleLine() string {
	if len(r.tasks) == 0 {
		return r.status
	}
	t := r.tasks[0]
	line := taskLine(t, 1)
	if model.IsTerminalPhase(t.Phase) {
		return line
	}
	return line + "  | " + r.status
}

func (r *uploadRenderer) dashboard() string {
	total := len(r.tasks)
	var done, failed, sum int
	for _, t := range r.tasks {
		sum += t.Progress
		switch t.Phase {
		case model.PhaseDone:
			done++
		case model.PhaseFailed:
			failed++
			sum += 100 - t.Progress
		}
	}

	var b strings.Builder
	etaPart := ""
	if eta := estimateBatchETA(r.now().Sub(r.started), sum, total*100); eta != "" {
		etaPart = " | eta ~ " + eta
	}
	b.WriteString(fmt.Sprintf("recruit-console upload | done %d/%d | failed %d%s\n", done, total, failed, etaPart))
	b.WriteString(strings.Repeat("-", 100) + "\n")
	for _, t := range r.tasks {
		b.WriteString(taskLine(t, total) + "\n")
	}
	b.WriteString(strings.Repeat("-", 100) + "\n")
	b.WriteString(r.status + "\n")
	if len(r.events) > 0 {
		b.WriteString(strings.Repeat("-", 100) + "\n")
		for _, e := range r.events {
			b.WriteString(e + "\n")
		}
	}
	return b.String()
}

func taskLine(t model.UploadTask, total int) string {
	name := truncateRunes(t.Name, 36)
	line := fmt.Sprintf("[%d/%d] %s  %-10s %s %3d%%",
		t.Index+1, total, padRight(name, 36), t.Phase, progressBar(t.Progress, barWidth), t.Progress)
	if t.Size > 0 {
		line += "  " + formatBytesIEC(t.Size)
	}
	if t.Error != "" {
		line += "  " + t.Error
	}
	return line
}

func progressBar(pct, width int) string {
	pct = clampInt(pct, 0, 100)
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// estimateBatchETA projects the remaining time from the progress made so
// far, assuming the rest of the batch moves at the same pace.
func estimateBatchETA(elapsed time.Duration, progress, target int) string {
	if elapsed <= 0 || progress <= 0 || target <= 0 {
		return ""
	}
	if progress >= target {
		return "0m"
	}
	remaining := elapsed.Seconds() * float64(target-progress) / float64(progress)
	return formatETASeconds(remaining)
}

func formatETASeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	secs := int64(math.Round(seconds))
	if secs < 60 {
		return "<1m"
	}
	minutes := secs / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remMinutes := minutes % 60
	if remMinutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, remMinutes)
}
