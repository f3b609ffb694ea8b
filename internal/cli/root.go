package cli

import (
	"context"
	"errors"
	"fmt"

	"recruit-console/internal/api"
	"recruit-console/internal/config"
)

func Run(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	var err error
	switch args[0] {
	case "login":
		err = runLogin(ctx, cfg, args[1:])
	case "logout":
		err = runLogout(cfg, args[1:])
	case "whoami":
		err = runWhoami(ctx, cfg, args[1:])
	case "register":
		err = runRegister(ctx, cfg, args[1:])
	case "jobs":
		err = runJobs(ctx, cfg, args[1:])
	case "stats":
		err = runStats(ctx, cfg, args[1:])
	case "candidates":
		err = runCandidates(ctx, cfg, args[1:])
	case "upload":
		err = runUpload(ctx, cfg, args[1:])
	case "voice":
		err = runVoice(ctx, cfg, args[1:])
	case "history":
		err = runHistory(ctx, cfg, args[1:])
	case "export":
		err = runExport(ctx, cfg, args[1:])
	case "settings":
		err = runSettings(cfg, args[1:])
	case "doctor":
		err = runDoctor(ctx, cfg, args[1:])
	case "dashboard":
		err = runDashboard(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	if err != nil && args[0] != "login" && errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w: session expired, run 'recruit-console login'", err)
	}
	return err
}

func printRootUsage() {
	fmt.Println("recruit-console: recruiting workflow client for the screening backend")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  recruit-console login --username <email>")
	fmt.Println("  recruit-console jobs list")
	fmt.Println("  recruit-console upload --job <job-id> resume1.pdf resume2.pdf")
	fmt.Println("  recruit-console dashboard")
	fmt.Println()
	fmt.Println("Session Commands:")
	fmt.Println("  login      sign in and store the access token")
	fmt.Println("  logout     forget the stored access token")
	fmt.Println("  whoami     show the signed-in user")
	fmt.Println("  register   create a recruiter account")
	fmt.Println()
	fmt.Println("Workflow Commands:")
	fmt.Println("  jobs        list/show/create/update/delete/sync job postings")
	fmt.Println("  stats       aggregate counters across all jobs")
	fmt.Println("  candidates  list/show/update/delete/download/screen candidates")
	fmt.Println("  upload      upload resumes to a job, one file at a time")
	fmt.Println("  voice       show/update voice screening configuration")
	fmt.Println("  history     list past upload batches recorded locally")
	fmt.Println("  export      write a job's ranked candidates to an .xlsx workbook")
	fmt.Println("  dashboard   interactive dashboard (jobs, candidates, uploads)")
	fmt.Println()
	fmt.Println("Local Commands:")
	fmt.Println("  settings  show/update local client settings")
	fmt.Println("  doctor    check state directory, backend reachability, and locks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - The backend URL comes from RECRUIT_API_URL (default " + config.DefaultAPIURL + ")")
}
