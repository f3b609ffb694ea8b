package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"recruit-console/internal/api"
	"recruit-console/internal/cache"
	"recruit-console/internal/config"
	"recruit-console/internal/model"
)

func runCandidates(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		printCandidatesUsage()
		return nil
	}
	switch args[0] {
	case "list":
		return runCandidatesList(ctx, cfg, args[1:])
	case "show":
		return runCandidatesShow(ctx, cfg, args[1:])
	case "update":
		return runCandidatesUpdate(ctx, cfg, args[1:])
	case "delete":
		return runCandidatesDelete(ctx, cfg, args[1:])
	case "download":
		return runCandidatesDownload(ctx, cfg, args[1:])
	case "screen":
		return runCandidatesScreen(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		printCandidatesUsage()
		return nil
	default:
		printCandidatesUsage()
		return fmt.Errorf("unknown candidates subcommand %q", args[0])
	}
}

func runCandidatesList(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates list", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
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
	cands, err := a.queries.Candidates(rctx, id)
	if err != nil {
		return err
	}
	ranked := append([]model.Candidate(nil), cands...)
	model.SortByResumeScore(ranked)
	if *jsonOut {
		return printJSON(ranked)
	}
	printCandidateTable(ranked)
	return nil
}

func printCandidateTable(cands []model.Candidate) {
	if len(cands) == 0 {
		fmt.Println("no candidates yet (upload resumes with: recruit-console upload --job <id> <files...>)")
		return
	}
	fmt.Printf("%-24s  %-24s  %-28s  %6s  %-11s  %s\n", "ID", "NAME", "EMAIL", "RESUME", "SCREENING", "TOP SKILLS")
	for _, c := range cands {
		fmt.Printf("%-24s  %-24s  %-28s  %6s  %-11s  %s\n",
			c.ID,
			model.Truncate(c.Name, 24),
			model.Truncate(c.Email, 28),
			formatScore(c.ResumeScore),
			formatScreening(c),
			topSkillsLine(c.Skills, 3),
		)
	}
}

func runCandidatesShow(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates show", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	candID := fs.String("id", "", "candidate id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, cid, err := requireCandidateRef(*jobID, *candID)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	c, err := a.client.GetCandidate(rctx, id, cid)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(c)
	}
	printCandidate(c)
	return nil
}

func printCandidate(c model.Candidate) {
	fmt.Println(kv("id", c.ID))
	fmt.Println(kv("name", c.Name))
	fmt.Println(kv("email", c.Email))
	fmt.Println(kv("phone", defaultIfEmpty(c.Phone, "-")))
	fmt.Println(kv("location", defaultIfEmpty(c.Location, "-")))
	fmt.Println(kv("resume_score", formatScore(c.ResumeScore)))
	fmt.Println(kv("screening", formatScreening(c)))
	fmt.Println(kv("notice_period", defaultIfEmpty(c.NoticePeriod, "-")))
	fmt.Println(kv("current_compensation", defaultIfEmpty(c.CurrentCompensation, "-")))
	fmt.Println(kv("expected_compensation", defaultIfEmpty(c.ExpectedCompensation, "-")))
	fmt.Println(kv("skills", topSkillsLine(c.Skills, -1)))
	if strings.TrimSpace(c.ScreeningSummary) != "" {
		fmt.Println()
		fmt.Println("Screening summary:")
		fmt.Println(indent(c.ScreeningSummary))
	}
	if strings.TrimSpace(c.CallTranscript) != "" {
		fmt.Println("Call transcript:")
		fmt.Println(indent(c.CallTranscript))
	}
}

func runCandidatesUpdate(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates update", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	candID := fs.String("id", "", "candidate id")
	phone := fs.String("phone", "", "phone number")
	location := fs.String("location", "", "location")
	notice := fs.String("notice-period", "", "notice period")
	current := fs.String("current-compensation", "", "current compensation")
	expected := fs.String("expected-compensation", "", "expected compensation")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, cid, err := requireCandidateRef(*jobID, *candID)
	if err != nil {
		return err
	}

	set := flagsSet(fs)
	var patch api.CandidatePatch
	if set["phone"] {
		patch.Phone = phone
	}
	if set["location"] {
		patch.Location = location
	}
	if set["notice-period"] {
		patch.NoticePeriod = notice
	}
	if set["current-compensation"] {
		patch.CurrentCompensation = current
	}
	if set["expected-compensation"] {
		patch.ExpectedCompensation = expected
	}
	if patch.Empty() {
		return errors.New("nothing to update (pass at least one field flag)")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	var c model.Candidate
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		c, err = a.client.UpdateCandidate(ctx, id, cid, patch)
		return err
	}, cache.CandidatesKey(id))
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(c)
	}
	fmt.Printf("updated candidate %s (%s)\n", c.ID, c.Name)
	return nil
}

func runCandidatesDelete(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates delete", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	candID := fs.String("id", "", "candidate id")
	yes := fs.Bool("yes", false, "skip confirmation")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, cid, err := requireCandidateRef(*jobID, *candID)
	if err != nil {
		return err
	}

	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("Delete candidate %s? [y/N]: ", cid))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("delete cancelled")
			return nil
		}
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		return a.client.DeleteCandidate(ctx, id, cid)
	}, cache.AfterCandidateDelete(id)...)
	if err != nil {
		return err
	}
	fmt.Printf("deleted candidate %s\n", cid)
	return nil
}

func runCandidatesDownload(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates download", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	candID := fs.String("id", "", "candidate id")
	outDir := fs.String("out", ".", "directory to save the resume into")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, cid, err := requireCandidateRef(*jobID, *candID)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	path, err := a.client.DownloadResume(rctx, id, cid, api.DirSaver{Dir: strings.TrimSpace(*outDir)})
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if *jsonOut {
		return printJSON(map[string]string{"candidate_id": cid, "path": path})
	}
	fmt.Printf("saved resume to %s\n", path)
	return nil
}

func runCandidatesScreen(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("candidates screen", flag.ContinueOnError)
	jobID := fs.String("job", "", "job id")
	candID := fs.String("id", "", "candidate id")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, cid, err := requireCandidateRef(*jobID, *candID)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	c, err := a.client.GetCandidate(rctx, id, cid)
	if err != nil {
		return err
	}
	if reason := model.ScreenBlocker(c); reason != "" {
		return fmt.Errorf("cannot screen %s: %s", defaultIfEmpty(c.Name, cid), reason)
	}

	var resp model.ScreenResponse
	err = a.cache.Mutate(rctx, func(ctx context.Context) error {
		var err error
		resp, err = a.client.StartVoiceScreen(ctx, id, cid)
		return err
	}, cache.AfterVoiceScreen(id)...)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(resp)
	}
	fmt.Printf("voice screening started for %s (status=%s call_id=%s)\n",
		defaultIfEmpty(c.Name, cid), defaultIfEmpty(resp.Status, "-"), defaultIfEmpty(resp.CallID, "-"))
	return nil
}

func requireCandidateRef(jobID, candidateID string) (string, string, error) {
	id, err := requireJobID(jobID)
	if err != nil {
		return "", "", err
	}
	cid := strings.TrimSpace(candidateID)
	if cid == "" {
		return "", "", errors.New("--id is required")
	}
	return id, cid, nil
}

func printCandidatesUsage() {
	fmt.Println("usage: recruit-console candidates <subcommand> --job <job-id> [flags]")
	fmt.Println()
	fmt.Println("Subcommands:")
	fmt.Println("  list                     candidates ranked by resume score")
	fmt.Println("  show --id <id>           one candidate with screening details")
	fmt.Println("  update --id <id> [--phone ...] [--location ...] [--notice-period ...]")
	fmt.Println("         [--current-compensation ...] [--expected-compensation ...]")
	fmt.Println("  delete --id <id> [--yes]")
	fmt.Println("  download --id <id> [--out <dir>]")
	fmt.Println("  screen --id <id>         start a voice screening call")
}
