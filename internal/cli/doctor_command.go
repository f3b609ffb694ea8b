package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"recruit-console/internal/api"
	"recruit-console/internal/config"
	"recruit-console/internal/history"
	"recruit-console/internal/localstore"
	"recruit-console/internal/settings"
)

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func runDoctor(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := doctor(ctx, cfg)
	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, c := range res.Checks {
			mark := "ok  "
			if !c.OK {
				mark = "FAIL"
			}
			fmt.Printf("[%s] %-18s %s\n", mark, c.Name, c.Message)
		}
	}
	if !res.OK {
		return errors.New("doctor found problems")
	}
	return nil
}

func doctor(ctx context.Context, cfg config.Config) DoctorResult {
	checks := make([]DoctorCheck, 0, 6)

	stateOK, stateMsg := ensureWritableDir(cfg.StateDir)
	checks = append(checks, DoctorCheck{Name: "directory:state", OK: stateOK, Message: stateMsg})

	eff := cfg
	if s, err := settings.Read(cfg.SettingsPath()); err != nil {
		checks = append(checks, DoctorCheck{Name: "settings", OK: false, Message: err.Error()})
	} else {
		eff = settings.Apply(cfg, s)
		checks = append(checks, DoctorCheck{
			Name:    "settings",
			OK:      true,
			Message: "allow " + strings.Join(eff.Upload.AllowExtensions, ", ") + ", upload timeout " + eff.Upload.Timeout.String(),
		})
	}

	if stateOK {
		checks = append(checks, historyCheck(ctx, cfg.HistoryPath()))
	}
	checks = append(checks, apiChecks(ctx, eff)...)
	checks = append(checks, locksCheck(cfg.LocksDir()))

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func historyCheck(ctx context.Context, path string) DoctorCheck {
	store, err := history.Open(path)
	if err != nil {
		return DoctorCheck{Name: "history", OK: false, Message: err.Error()}
	}
	defer store.Close()
	batches, err := store.List(ctx, history.Filter{Limit: 1})
	if err != nil {
		return DoctorCheck{Name: "history", OK: false, Message: err.Error()}
	}
	if len(batches) == 0 {
		return DoctorCheck{Name: "history", OK: true, Message: "no uploads recorded yet"}
	}
	return DoctorCheck{Name: "history", OK: true, Message: "last upload " + batches[0].StartedAt.Local().Format("2006-01-02 15:04")}
}

// apiChecks treats any HTTP answer as reachable; a 401 only means there is
// no valid session.
func apiChecks(ctx context.Context, cfg config.Config) []DoctorCheck {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return []DoctorCheck{{Name: "api", OK: false, Message: err.Error()}}
	}
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	if !a.client.LoggedIn() {
		_, err := a.client.JobStats(rctx)
		var apiErr *api.Error
		if err == nil || errors.As(err, &apiErr) {
			return []DoctorCheck{
				{Name: "api", OK: true, Message: "reachable at " + a.client.BaseURL()},
				{Name: "session", OK: true, Message: "not logged in (run 'recruit-console login')"},
			}
		}
		return []DoctorCheck{{Name: "api", OK: false, Message: fmt.Sprintf("%s unreachable: %v", a.client.BaseURL(), err)}}
	}

	user, err := a.client.Me(rctx)
	switch {
	case err == nil:
		return []DoctorCheck{
			{Name: "api", OK: true, Message: "reachable at " + a.client.BaseURL()},
			{Name: "session", OK: true, Message: "logged in as " + user.Email},
		}
	case errors.Is(err, api.ErrUnauthorized):
		return []DoctorCheck{
			{Name: "api", OK: true, Message: "reachable at " + a.client.BaseURL()},
			{Name: "session", OK: false, Message: "session expired, run 'recruit-console login'"},
		}
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return []DoctorCheck{{Name: "api", OK: false, Message: fmt.Sprintf("%s answered %d: %s", a.client.BaseURL(), apiErr.Status, apiErr.Detail)}}
		}
		return []DoctorCheck{{Name: "api", OK: false, Message: fmt.Sprintf("%s unreachable: %v", a.client.BaseURL(), err)}}
	}
}

func locksCheck(locksDir string) DoctorCheck {
	locks, err := localstore.ListLocks(locksDir)
	if err != nil {
		return DoctorCheck{Name: "locks", OK: false, Message: err.Error()}
	}
	if len(locks) == 0 {
		return DoctorCheck{Name: "locks", OK: true, Message: "no uploads in progress"}
	}
	held := make([]string, 0, len(locks))
	for _, l := range locks {
		if l.PID > 0 {
			held = append(held, fmt.Sprintf("%s (pid=%d since %s)", l.Key, l.PID, l.CreatedAt))
		} else {
			held = append(held, l.Key)
		}
	}
	return DoctorCheck{
		Name:    "locks",
		OK:      true,
		Message: "upload in progress for " + strings.Join(held, ", ") + "; remove stale locks from " + locksDir,
	}
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := localstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "recruit-console-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, path + " writable"
}
