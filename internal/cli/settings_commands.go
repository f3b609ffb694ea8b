package cli

import (
	"flag"
	"fmt"
	"strings"

	"recruit-console/internal/config"
	"recruit-console/internal/settings"
)

func runSettings(cfg config.Config, args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(cfg, args[1:])
	case "set":
		return runSettingsSet(cfg, args[1:])
	case "reset":
		return runSettingsReset(cfg, args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

type effectiveSettings struct {
	SettingsPath    string            `json:"settings_path"`
	StateDir        string            `json:"state_dir"`
	APIURL          string            `json:"api_url"`
	AllowExtensions []string          `json:"allow_extensions"`
	PhaseDwell      string            `json:"phase_dwell"`
	UploadTimeout   string            `json:"upload_timeout"`
	ClearDelay      string            `json:"clear_delay"`
	CacheStaleTime  string            `json:"cache_stale_time"`
	Stored          settings.Settings `json:"stored"`
}

func runSettingsShow(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	stored, err := settings.Read(cfg.SettingsPath())
	if err != nil {
		return err
	}
	eff := settings.Apply(cfg, stored)
	view := effectiveSettings{
		SettingsPath:    cfg.SettingsPath(),
		StateDir:        eff.StateDir,
		APIURL:          eff.API.BaseURL,
		AllowExtensions: eff.Upload.AllowExtensions,
		PhaseDwell:      eff.Upload.PhaseDwell.String(),
		UploadTimeout:   eff.Upload.Timeout.String(),
		ClearDelay:      eff.Upload.ClearDelay.String(),
		CacheStaleTime:  eff.Cache.StaleTime.String(),
		Stored:          stored,
	}
	if *jsonOut {
		return printJSON(view)
	}

	fmt.Printf("settings: %s\n", view.SettingsPath)
	fmt.Printf("state_dir: %s\n", view.StateDir)
	fmt.Printf("api_url: %s\n", view.APIURL)
	fmt.Printf("allow_extensions: %s%s\n", strings.Join(view.AllowExtensions, ", "), sourceMark(len(stored.AllowExtensions) > 0))
	fmt.Printf("phase_dwell: %s%s\n", view.PhaseDwell, sourceMark(stored.PhaseDwell != ""))
	fmt.Printf("upload_timeout: %s%s\n", view.UploadTimeout, sourceMark(stored.UploadTimeout != ""))
	fmt.Printf("clear_delay: %s%s\n", view.ClearDelay, sourceMark(stored.ClearDelay != ""))
	fmt.Printf("cache_stale_time: %s%s\n", view.CacheStaleTime, sourceMark(stored.CacheStaleTime != ""))
	return nil
}

func sourceMark(fromFile bool) string {
	if fromFile {
		return " (settings file)"
	}
	return ""
}

func runSettingsSet(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	allow := fs.String("allow-ext", "", "comma separated upload extensions, e.g. .pdf,.zip")
	dwell := fs.String("phase-dwell", "", "hold time per processing phase, e.g. 1s (0 disables)")
	timeout := fs.String("upload-timeout", "", "per-file upload deadline, e.g. 5m")
	clearDelay := fs.String("clear-delay", "", "how long the dashboard keeps a finished batch, e.g. 3s")
	staleTime := fs.String("cache-stale-time", "", "dashboard cache freshness window, e.g. 30s")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := cfg.SettingsPath()
	current, err := settings.Read(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*allow) != "" {
		current.AllowExtensions = strings.Split(*allow, ",")
	}
	if strings.TrimSpace(*dwell) != "" {
		current.PhaseDwell = *dwell
	}
	if strings.TrimSpace(*timeout) != "" {
		current.UploadTimeout = *timeout
	}
	if strings.TrimSpace(*clearDelay) != "" {
		current.ClearDelay = *clearDelay
	}
	if strings.TrimSpace(*staleTime) != "" {
		current.CacheStaleTime = *staleTime
	}

	res, err := settings.Update(path, current)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}
	fmt.Printf("updated settings in %s\n", res.Path)
	fmt.Printf("allow_extensions: %s\n", defaultIfEmpty(strings.Join(res.Settings.AllowExtensions, ", "), "(environment)"))
	fmt.Printf("phase_dwell: %s\n", defaultIfEmpty(res.Settings.PhaseDwell, "(environment)"))
	fmt.Printf("upload_timeout: %s\n", defaultIfEmpty(res.Settings.UploadTimeout, "(environment)"))
	fmt.Printf("clear_delay: %s\n", defaultIfEmpty(res.Settings.ClearDelay, "(environment)"))
	fmt.Printf("cache_stale_time: %s\n", defaultIfEmpty(res.Settings.CacheStaleTime, "(environment)"))
	return nil
}

func runSettingsReset(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("settings reset", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := settings.Reset(cfg.SettingsPath()); err != nil {
		return err
	}
	fmt.Printf("removed %s; environment defaults apply\n", cfg.SettingsPath())
	return nil
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set [--allow-ext .pdf,.zip] [--phase-dwell 1s] [--upload-timeout 5m]")
	fmt.Println("               [--clear-delay 3s] [--cache-stale-time 30s]")
	fmt.Println("  settings reset")
}
