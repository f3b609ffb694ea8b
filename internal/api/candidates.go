package api

import (
	"context"
	"net/http"

	"recruit-console/internal/model"
)

func (c *Client) ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	var out []model.Candidate
	if err := c.doJSON(ctx, http.MethodGet, pathf("/candidates/%s/candidates", jobID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCandidate(ctx context.Context, jobID, id string) (model.Candidate, error) {
	var out model.Candidate
	err := c.doJSON(ctx, http.MethodGet, pathf("/candidates/%s/candidates/%s", jobID, id), nil, &out)
	return out, err
}

// CandidatePatch holds the recruiter-editable candidate fields. Nil fields
// are left unchanged.
type CandidatePatch struct {
	Phone                *string `json:"phone,omitempty"`
	Location             *string `json:"location,omitempty"`
	NoticePeriod         *string `json:"notice_period,omitempty"`
	CurrentCompensation  *string `json:"current_compensation,omitempty"`
	ExpectedCompensation *string `json:"expected_compensation,omitempty"`
}

func (p CandidatePatch) Empty() bool {
	return p.Phone == nil && p.Location == nil && p.NoticePeriod == nil &&
		p.CurrentCompensation == nil && p.ExpectedCompensation == nil
}

func (c *Client) UpdateCandidate(ctx context.Context, jobID, id string, patch CandidatePatch) (model.Candidate, error) {
	var out model.Candidate
	err := c.doJSON(ctx, http.MethodPut, pathf("/candidates/%s/%s", jobID, id), patch, &out)
	return out, err
}

func (c *Client) DeleteCandidate(ctx context.Context, jobID, id string) error {
	return c.doJSON(ctx, http.MethodDelete, pathf("/candidates/%s/candidates/%s", jobID, id), nil, nil)
}

// StartVoiceScreen triggers an outbound screening call. The backend owns the
// call; the client only observes screening_in_progress afterwards.
func (c *Client) StartVoiceScreen(ctx context.Context, jobID, id string) (model.ScreenResponse, error) {
	var out model.ScreenResponse
	err := c.doJSON(ctx, http.MethodPost, pathf("/candidates/%s/%s/voice-screen", jobID, id), nil, &out)
	return out, err
}
