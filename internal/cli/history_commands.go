package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"recruit-console/internal/config"
	"recruit-console/internal/export"
	"recruit-console/internal/history"
	"recruit-console/internal/model"
)

func runHistory(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	jobID := fs.String("job", "", "only batches for this job id")
	limit := fs.Int("limit", history.DefaultLimit, "max batches to list")
	tasks := fs.Bool("tasks", false, "include per-file rows")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("--limit must be >= 1")
	}
	filter := history.Filter{Limit: *limit, WithTasks: *tasks}
	if strings.TrimSpace(*jobID) != "" {
		id, err := requireJobID(*jobID)
		if err != nil {
			return err
		}
		filter.JobID = id
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	batches, err := store.List(ctx, filter)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(batches)
	}
	if len(batches) == 0 {
		fmt.Println("no uploads recorded yet")
		return nil
	}
	for _, b := range batches {
		fmt.Printf("%s  job=%s  files=%d ok=%d failed=%d rejected=%d  %s\n",
			b.StartedAt.Local().Format("2006-01-02 15:04"), b.JobID, b.Total, b.Succeeded, b.Failed, b.Rejected, b.ID)
		for _, t := range b.Tasks {
			line := fmt.Sprintf("    %-36s %-8s %3d%%", truncateRunes(t.Name, 36), t.Phase, t.Progress)
			if t.Error != "" {
				line += "  " + t.Error
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runExport(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	out := fs.String("out", "", "output .xlsx path (default <job-title>-candidates.xlsx)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(*jobID)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	job, err := a.queries.Job(rctx, id)
	if err != nil {
		return err
	}
	cands, err := a.queries.Candidates(rctx, id)
	if err != nil {
		return err
	}

	written, err := writeExport(*out, job, cands)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"job_id":     job.ID,
			"candidates": len(cands),
			"path":       written,
		})
	}
	fmt.Printf("exported %d candidates for %q to %s\n", len(cands), model.Truncate(job.Title, 40), written)
	return nil
}

// writeExport writes the workbook to path, or to the default name in the
// working directory, and returns the absolute path.
func writeExport(path string, job model.Job, cands []model.Candidate) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = export.DefaultFileName(job)
	}
	written, err := export.WriteFile(path, job, cands)
	if err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(written); err == nil {
		written = abs
	}
	return written, nil
}
