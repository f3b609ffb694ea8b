package cache

import (
	"context"

	"recruit-console/internal/model"
)

// Backend is the read side of the API used to populate the cache.
type Backend interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	GetJob(ctx context.Context, id string) (model.Job, error)
	ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error)
	JobStats(ctx context.Context) (model.JobStats, error)
	GlobalVoiceConfig(ctx context.Context) (model.GlobalVoiceConfig, error)
	JobVoiceConfig(ctx context.Context, jobID string) (model.JobVoiceConfig, error)
}

// Queries binds typed reads to cache keys. Set Fresh to bypass
// stale-while-revalidate and always block for current data.
type Queries struct {
	Cache   *Cache
	Backend Backend
	Fresh   bool
}

func NewQueries(c *Cache, b Backend) *Queries {
	return &Queries{Cache: c, Backend: b}
}

func read[T any](ctx context.Context, q *Queries, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if q.Fresh {
		return Fetch(ctx, q.Cache, key, fetch)
	}
	return Get(ctx, q.Cache, key, fetch)
}

func (q *Queries) Jobs(ctx context.Context) ([]model.Job, error) {
	return read(ctx, q, JobsKey(), q.Backend.ListJobs)
}

func (q *Queries) Job(ctx context.Context, id string) (model.Job, error) {
	return read(ctx, q, JobKey(id), func(ctx context.Context) (model.Job, error) {
		return q.Backend.GetJob(ctx, id)
	})
}

func (q *Queries) Candidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	return read(ctx, q, CandidatesKey(jobID), func(ctx context.Context) ([]model.Candidate, error) {
		return q.Backend.ListCandidates(ctx, jobID)
	})
}

func (q *Queries) Stats(ctx context.Context) (model.JobStats, error) {
	return read(ctx, q, StatsKey(), q.Backend.JobStats)
}

func (q *Queries) GlobalVoice(ctx context.Context) (model.GlobalVoiceConfig, error) {
	return read(ctx, q, VoiceGlobalKey(), q.Backend.GlobalVoiceConfig)
}

func (q *Queries) JobVoice(ctx context.Context, jobID string) (model.JobVoiceConfig, error) {
	return read(ctx, q, VoiceJobKey(jobID), func(ctx context.Context) (model.JobVoiceConfig, error) {
		return q.Backend.JobVoiceConfig(ctx, jobID)
	})
}

// Invalidations that follow each mutation.

func AfterUpload(jobID string) []Key {
	return []Key{CandidatesKey(jobID), JobsKey()}
}

func AfterCandidateDelete(jobID string) []Key {
	return []Key{CandidatesKey(jobID), JobsKey(), JobKey(jobID), StatsKey()}
}

func AfterJobSync(jobID string) []Key {
	return []Key{JobKey(jobID), CandidatesKey(jobID), JobsKey(), StatsKey()}
}

// AfterSyncAll covers every job, so the per-job kinds are invalidated as
// wildcards.
func AfterSyncAll() []Key {
	return []Key{{Kind: KindJob}, {Kind: KindCandidates}, JobsKey(), StatsKey()}
}

func AfterJobChange(jobID string) []Key {
	keys := []Key{JobsKey(), StatsKey()}
	if jobID != "" {
		keys = append(keys, JobKey(jobID), CandidatesKey(jobID))
	}
	return keys
}

func AfterVoiceScreen(jobID string) []Key {
	return []Key{CandidatesKey(jobID)}
}
