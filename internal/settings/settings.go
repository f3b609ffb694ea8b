package settings

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"recruit-console/internal/config"
	"recruit-console/internal/localstore"
)

// SupportedExtensions are the resume formats the backend can parse.
var SupportedExtensions = []string{".pdf", ".zip", ".doc", ".docx"}

// Settings overrides environment defaults. Zero values leave the
// environment value in place; durations are Go duration strings.
type Settings struct {
	AllowExtensions []string `json:"allow_extensions,omitempty"`
	PhaseDwell      string   `json:"phase_dwell,omitempty"`
	UploadTimeout   string   `json:"upload_timeout,omitempty"`
	ClearDelay      string   `json:"clear_delay,omitempty"`
	CacheStaleTime  string   `json:"cache_stale_time,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

type UpdateResult struct {
	Path     string   `json:"path"`
	Settings Settings `json:"settings"`
}

func Normalize(raw Settings) (Settings, error) {
	norm := Settings{UpdatedAt: raw.UpdatedAt}

	seen := make(map[string]bool, len(raw.AllowExtensions))
	for _, e := range raw.AllowExtensions {
		ext := strings.ToLower(strings.TrimSpace(e))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(SupportedExtensions, ext) {
			return Settings{}, fmt.Errorf("unsupported extension %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		norm.AllowExtensions = append(norm.AllowExtensions, ext)
	}

	fields := []struct {
		name string
		raw  string
		dst  *string
		min  time.Duration
	}{
		{"phase_dwell", raw.PhaseDwell, &norm.PhaseDwell, 0},
		{"upload_timeout", raw.UploadTimeout, &norm.UploadTimeout, time.Second},
		{"clear_delay", raw.ClearDelay, &norm.ClearDelay, 0},
		{"cache_stale_time", raw.CacheStaleTime, &norm.CacheStaleTime, 0},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.raw)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: invalid duration %q", f.name, v)
		}
		if d < f.min {
			return Settings{}, fmt.Errorf("%s must be >= %s", f.name, f.min)
		}
		*f.dst = d.String()
	}
	return norm, nil
}

// Read returns the stored settings, or empty settings when the file does
// not exist yet.
func Read(path string) (Settings, error) {
	var s Settings
	if err := localstore.ReadJSON(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	return Normalize(s)
}

func Update(path string, s Settings) (UpdateResult, error) {
	norm, err := Normalize(s)
	if err != nil {
		return UpdateResult{}, err
	}
	norm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := localstore.WriteJSON(path, norm, 0o644); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Path: path, Settings: norm}, nil
}

// Reset removes the settings file so environment defaults apply again.
func Reset(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove settings %s: %w", path, err)
	}
	return nil
}

// Apply layers s over the environment configuration.
func Apply(cfg config.Config, s Settings) config.Config {
	out := cfg
	if len(s.AllowExtensions) > 0 {
		out.Upload.AllowExtensions = append([]string(nil), s.AllowExtensions...)
	}
	if d, ok := parse(s.PhaseDwell); ok {
		out.Upload.PhaseDwell = d
	}
	if d, ok := parse(s.UploadTimeout); ok {
		out.Upload.Timeout = d
	}
	if d, ok := parse(s.ClearDelay); ok {
		out.Upload.ClearDelay = d
	}
	if d, ok := parse(s.CacheStaleTime); ok {
		out.Cache.StaleTime = d
	}
	return out
}

// Load reads the settings file at cfg.SettingsPath and applies it.
func Load(cfg config.Config) (config.Config, error) {
	s, err := Read(cfg.SettingsPath())
	if err != nil {
		return cfg, fmt.Errorf("load settings: %w", err)
	}
	return Apply(cfg, s), nil
}

func parse(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
