package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"recruit-console/internal/api"
	"recruit-console/internal/cache"
	"recruit-console/internal/config"
	"recruit-console/internal/model"
)

// syncAllLimit caps concurrent sync requests in "jobs sync-all".
const syncAllLimit = 4

func runJobs(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		printJobsUsage()
		return nil
	}
	switch args[0] {
	case "list":
		return runJobsList(ctx, cfg, args[1:])
	case "show":
		return runJobsShow(ctx, cfg, args[1:])
	case "create":
		return runJobsCreate(ctx, cfg, args[1:])
	case "update":
		return runJobsUpdate(ctx, cfg, args[1:])
	case "delete":
		return runJobsDelete(ctx, cfg, args[1:])
	case "sync":
		return runJobsSync(ctx, cfg, args[1:])
	case "sync-all":
		return runJobsSyncAll(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		printJobsUsage()
		return nil
	default:
		printJobsUsage()
		return fmt.Errorf("unknown jobs subcommand %q", args[0])
	}
}

func runJobsList(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs list", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	jobs, err := a.queries.Jobs(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(jobs)
	}
	printJobTable(jobs)
	return nil
}

func printJobTable(jobs []model.Job) {
	if len(jobs) == 0 {
		fmt.Println("no jobs yet (create one with: recruit-console jobs create)")
		return
	}
	fmt.Printf("%-24s  %-36s  %10s  %7s  %6s  %s\n", "ID", "TITLE", "CANDIDATES", "RESUME", "PHONE", "CREATED")
	for _, j := range jobs {
		fmt.Printf("%-24s  %-36s  %10d  %7d  %6d  %s\n",
			j.ID, model.Truncate(j.Title, 36), j.TotalCandidates, j.ResumeScreened, j.PhoneScreened, shortDate(j.CreatedAt))
	}
}

func runJobsShow(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs show", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(firstNonEmpty(*jobID, fs.Arg(0)))
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
	if *jsonOut {
		return printJSON(job)
	}
	printJob(job)
	return nil
}

func printJob(job model.Job) {
	fmt.Println(kv("id", job.ID))
	fmt.Println(kv("title", job.Title))
	fmt.Println(kv("created", shortDate(job.CreatedAt)))
	fmt.Println(kv("candidates", fmt.Sprint(job.TotalCandidates)))
	fmt.Println(kv("resume_screened", fmt.Sprint(job.ResumeScreened)))
	fmt.Println(kv("phone_screened", fmt.Sprint(job.PhoneScreened)))
	fmt.Println()
	fmt.Println("Description:")
	fmt.Println(indent(job.Description))
	fmt.Println("Responsibilities:")
	fmt.Println(indent(job.Responsibilities))
	fmt.Println("Requirements:")
	fmt.Println(indent(job.Requirements))
}

func runJobsCreate(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs create", flag.ContinueOnError)
	title := fs.String("title", "", "job title (min 3 chars)")
	description := fs.String("description", "", "description (min 10 chars)")
	responsibilities := fs.String("responsibilities", "", "responsibilities (min 10 chars)")
	requirements := fs.String("requirements", "", "requirements (min 10 chars)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft := model.JobDraft{
		Title:            *title,
		Description:      *description,
		Responsibilities: *responsibilities,
		Requirements:     *requirements,
	}.Normalize()
	if err := model.ValidateJobDraft(draft); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	var job model.Job
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		job, err = a.client.CreateJob(ctx, draft)
		return err
	}, cache.AfterJobChange("")...)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(job)
	}
	fmt.Printf("created job %s: %s\n", job.ID, job.Title)
	return nil
}

func runJobsUpdate(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs update", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	title := fs.String("title", "", "job title (min 3 chars)")
	description := fs.String("description", "", "description (min 10 chars)")
	responsibilities := fs.String("responsibilities", "", "responsibilities (min 10 chars)")
	requirements := fs.String("requirements", "", "requirements (min 10 chars)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(*jobID)
	if err != nil {
		return err
	}
	set := flagsSet(fs)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	current, err := a.client.GetJob(rctx, id)
	if err != nil {
		return err
	}
	draft := model.JobDraft{
		Title:            current.Title,
		Description:      current.Description,
		Responsibilities: current.Responsibilities,
		Requirements:     current.Requirements,
	}
	if set["title"] {
		draft.Title = *title
	}
	if set["description"] {
		draft.Description = *description
	}
	if set["responsibilities"] {
		draft.Responsibilities = *responsibilities
	}
	if set["requirements"] {
		draft.Requirements = *requirements
	}
	draft = draft.Normalize()
	if err := model.ValidateJobDraft(draft); err != nil {
		return err
	}

	var job model.Job
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		job, err = a.client.UpdateJob(ctx, id, draft)
		return err
	}, cache.AfterJobChange(id)...)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(job)
	}
	fmt.Printf("updated job %s: %s\n", job.ID, job.Title)
	return nil
}

func runJobsDelete(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs delete", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	yes := fs.Bool("yes", false, "skip confirmation")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(firstNonEmpty(*jobID, fs.Arg(0)))
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	if !*yes {
		job, err := a.client.GetJob(rctx, id)
		if err != nil {
			return err
		}
		ok, err := promptConfirm(fmt.Sprintf("Delete job %q and its %d candidates? [y/N]: ", job.Title, job.TotalCandidates))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("delete cancelled")
			return nil
		}
	}

	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		return a.client.DeleteJob(ctx, id)
	}, cache.AfterJobChange(id)...)
	if err != nil {
		return err
	}
	fmt.Printf("deleted job %s\n", id)
	return nil
}

func runJobsSync(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs sync", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireJobID(firstNonEmpty(*jobID, fs.Arg(0)))
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	var job model.Job
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		job, err = a.client.SyncJob(ctx, id)
		return err
	}, cache.AfterJobSync(id)...)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(job)
	}
	fmt.Printf("synced %s: candidates=%d resume_screened=%d phone_screened=%d\n",
		job.ID, job.TotalCandidates, job.ResumeScreened, job.PhoneScreened)
	return nil
}

type syncAllResult struct {
	Synced []model.Job    `json:"synced"`
	Failed []syncAllError `json:"failed,omitempty"`
}

type syncAllError struct {
	JobID string `json:"job_id"`
	Title string `json:"title"`
	Error string `json:"error"`
}

func runJobsSyncAll(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("jobs sync-all", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	jobs, err := a.client.ListJobs(rctx)
	if err != nil {
		return err
	}
	res := syncAll(rctx, a, jobs)

	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Printf("synced %d/%d jobs\n", len(res.Synced), len(jobs))
		for _, f := range res.Failed {
			fmt.Printf("  failed %s (%s): %s\n", f.JobID, model.Truncate(f.Title, 40), f.Error)
		}
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d jobs failed to sync", len(res.Failed), len(jobs))
	}
	return nil
}

// syncAll syncs every job with bounded concurrency. One failing job never
// stops the others; failures are collected in the result.
func syncAll(ctx context.Context, a *app, jobs []model.Job) syncAllResult {
	var (
		mu  sync.Mutex
		res syncAllResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncAllLimit)
	for _, j := range jobs {
		g.Go(func() error {
			synced, err := a.client.SyncJob(gctx, j.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.log.Debug("sync job failed", "job_id", j.ID, "error", err)
				res.Failed = append(res.Failed, syncAllError{JobID: j.ID, Title: j.Title, Error: api.Detail(err)})
				return nil
			}
			res.Synced = append(res.Synced, synced)
			return nil
		})
	}
	_ = g.Wait()
	a.cache.Invalidate(cache.AfterSyncAll()...)

	sort.Slice(res.Synced, func(i, k int) bool { return res.Synced[i].ID < res.Synced[k].ID })
	sort.Slice(res.Failed, func(i, k int) bool { return res.Failed[i].JobID < res.Failed[k].JobID })
	return res
}

func runStats(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	stats, err := a.queries.Stats(rctx)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(stats)
	}
	fmt.Println(kv("jobs", fmt.Sprint(stats.TotalJobs)))
	fmt.Println(kv("candidates", fmt.Sprint(stats.TotalCandidates)))
	fmt.Println(kv("resume_screened", fmt.Sprint(stats.ResumeScreened)))
	fmt.Println(kv("phone_screened", fmt.Sprint(stats.PhoneScreened)))
	return nil
}

func printJobsUsage() {
	fmt.Println("usage: recruit-console jobs <subcommand> [flags]")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  list                         list job postings")
	fmt.Println("  show --job <id>              show one job")
	fmt.Println("  create --title ... --description ... --responsibilities ... --requirements ...")
	fmt.Println("  update --job <id> [--title ...] [--description ...] ...")
	fmt.Println("  delete --job <id> [--yes]    delete a job and its candidates")
	fmt.Println("  sync --job <id>              recompute a job's counters")
	fmt.Println("  sync-all                     recompute counters for every job")
}

func shortDate(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) >= 10 {
		return ts[:10]
	}
	return defaultIfEmpty(ts, "-")
}

func indent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "  -"
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
