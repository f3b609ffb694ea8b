package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:8000/api/v1"

type Logger struct {
	Level     slog.Level
	Plaintext bool
}

type API struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type Upload struct {
	AllowExtensions []string
	PhaseDwell      time.Duration // hold time of each simulated processing phase
	Timeout         time.Duration // per-file upload deadline
	ClearDelay      time.Duration // how long a finished batch stays on screen
}

type Cache struct {
	StaleTime time.Duration
}

type Config struct {
	Logger   Logger
	API      API
	Upload   Upload
	Cache    Cache
	StateDir string
}

// Load reads an optional .env file from the working directory and then the
// process environment. Every invalid variable is reported at once.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	var ge getenv
	cfg := Config{
		Logger: Logger{
			Level:     ge.LogLevel("LOG_LEVEL", false, slog.LevelWarn),
			Plaintext: ge.Bool("LOG_PLAINTEXT", false, true),
		},
		API: API{
			BaseURL:        ge.String("RECRUIT_API_URL", false, DefaultAPIURL),
			RequestTimeout: ge.Duration("REQUEST_TIMEOUT", false, 60*time.Second),
		},
		Upload: Upload{
			AllowExtensions: ge.Extensions("UPLOAD_ALLOW_EXT", false, []string{".pdf", ".zip"}),
			PhaseDwell:      ge.Duration("UPLOAD_PHASE_DWELL", false, time.Second),
			Timeout:         ge.Duration("UPLOAD_TIMEOUT", false, 5*time.Minute),
			ClearDelay:      ge.Duration("UPLOAD_CLEAR_DELAY", false, 3*time.Second),
		},
		Cache: Cache{
			StaleTime: ge.Duration("CACHE_STALE_TIME", false, 30*time.Second),
		},
		StateDir: ge.String("RECRUIT_STATE_DIR", false, defaultStateDir()),
	}
	return cfg, ge.Err()
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".recruit-console"
	}
	return filepath.Join(dir, "recruit-console")
}

func (c Config) SessionPath() string {
	return filepath.Join(c.StateDir, "session.json")
}

func (c Config) SettingsPath() string {
	return filepath.Join(c.StateDir, "settings.json")
}

func (c Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

func (c Config) LocksDir() string {
	return filepath.Join(c.StateDir, "locks")
}
