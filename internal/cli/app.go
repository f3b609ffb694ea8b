package cli

import (
	"context"
	"log/slog"

	"recruit-console/internal/api"
	"recruit-console/internal/cache"
	"recruit-console/internal/config"
	"recruit-console/internal/history"
	"recruit-console/internal/localstore"
	"recruit-console/internal/logger"
	"recruit-console/internal/session"
	"recruit-console/internal/settings"
	"recruit-console/internal/upload"
)

// app holds everything a command needs, built from the effective config
// (environment defaults overlaid with the settings file).
type app struct {
	cfg     config.Config
	log     *slog.Logger
	session *session.File
	client  *api.Client
	cache   *cache.Cache
	queries *cache.Queries
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	cfg, err := settings.Load(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	store := session.NewFile(cfg.SessionPath())
	client, err := api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		Session: store,
		Logger:  log.With("component", "api"),
	})
	if err != nil {
		return nil, err
	}
	c := cache.New(cache.Options{
		StaleTime: cfg.Cache.StaleTime,
		Logger:    log.With("component", "cache"),
	})
	return &app{
		cfg:     cfg,
		log:     log,
		session: store,
		client:  client,
		cache:   c,
		queries: cache.NewQueries(c, client),
	}, nil
}

// requestContext bounds one interactive request. Uploads use their own
// per-file deadline instead.
func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.API.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.API.RequestTimeout)
}

func (a *app) orchestrator(observer func(upload.Event)) *upload.Orchestrator {
	return upload.New(a.client, a.cache, upload.Options{
		Allow:    a.cfg.Upload.AllowExtensions,
		Dwell:    a.cfg.Upload.PhaseDwell,
		Timeout:  a.cfg.Upload.Timeout,
		Observer: observer,
		Logger:   a.log.With("component", "upload"),
	})
}

func (a *app) openHistory() (*history.Store, error) {
	if err := localstore.Mkdir(a.cfg.StateDir); err != nil {
		return nil, err
	}
	return history.Open(a.cfg.HistoryPath())
}

// recordBatch stores a finished batch in the local history. Failures are
// logged and never fail the upload itself.
func (a *app) recordBatch(ctx context.Context, res upload.Result) {
	if res.BatchID == "" {
		return
	}
	store, err := a.openHistory()
	if err != nil {
		a.log.Warn("open upload history", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, res); err != nil {
		a.log.Warn("record upload batch", "batch_id", res.BatchID, "error", err)
	}
}
