package api

import (
	"context"
	"net/http"

	"recruit-console/internal/model"
)

func (c *Client) ListJobs(ctx context.Context) ([]model.Job, error) {
	var out []model.Job
	if err := c.doJSON(ctx, http.MethodGet, "/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (model.Job, error) {
	var out model.Job
	err := c.doJSON(ctx, http.MethodGet, pathf("/jobs/%s", id), nil, &out)
	return out, err
}

// CreateJob validates and trims the draft locally before sending it.
func (c *Client) CreateJob(ctx context.Context, draft model.JobDraft) (model.Job, error) {
	draft = draft.Normalize()
	if err := model.ValidateJobDraft(draft); err != nil {
		return model.Job{}, err
	}
	var out model.Job
	err := c.doJSON(ctx, http.MethodPost, "/jobs", draft, &out)
	return out, err
}

func (c *Client) UpdateJob(ctx context.Context, id string, draft model.JobDraft) (model.Job, error) {
	draft = draft.Normalize()
	if err := model.ValidateJobDraft(draft); err != nil {
		return model.Job{}, err
	}
	var out model.Job
	err := c.doJSON(ctx, http.MethodPut, pathf("/jobs/%s", id), draft, &out)
	return out, err
}

func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, pathf("/jobs/%s", id), nil, nil)
}

// SyncJob asks the backend to recompute the job's candidate counters.
func (c *Client) SyncJob(ctx context.Context, id string) (model.Job, error) {
	var out model.Job
	err := c.doJSON(ctx, http.MethodPost, pathf("/jobs/%s/sync-candidates", id), nil, &out)
	return out, err
}

func (c *Client) JobStats(ctx context.Context) (model.JobStats, error) {
	var out model.JobStats
	err := c.doJSON(ctx, http.MethodGet, "/jobs/stats", nil, &out)
	return out, err
}
