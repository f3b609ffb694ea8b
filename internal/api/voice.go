package api

import (
	"context"
	"net/http"

	"recruit-console/internal/model"
)

func (c *Client) GlobalVoiceConfig(ctx context.Context) (model.GlobalVoiceConfig, error) {
	var out model.GlobalVoiceConfig
	err := c.doJSON(ctx, http.MethodGet, "/voice-agent/global-config", nil, &out)
	return out, err
}

func (c *Client) UpdateGlobalVoiceConfig(ctx context.Context, cfg model.GlobalVoiceConfig) (model.GlobalVoiceConfig, error) {
	if err := model.ValidateTemperature(cfg.Temperature); err != nil {
		return model.GlobalVoiceConfig{}, err
	}
	var out model.GlobalVoiceConfig
	err := c.doJSON(ctx, http.MethodPut, "/voice-agent/global-config", cfg, &out)
	return out, err
}

func (c *Client) JobVoiceConfig(ctx context.Context, jobID string) (model.JobVoiceConfig, error) {
	var out model.JobVoiceConfig
	err := c.doJSON(ctx, http.MethodGet, pathf("/voice-agent/job-config/%s", jobID), nil, &out)
	return out, err
}

func (c *Client) UpdateJobVoiceConfig(ctx context.Context, jobID string, cfg model.JobVoiceConfig) (model.JobVoiceConfig, error) {
	if cfg.Temperature != nil {
		if err := model.ValidateTemperature(*cfg.Temperature); err != nil {
			return model.JobVoiceConfig{}, err
		}
	}
	cfg.JobID = jobID
	var out model.JobVoiceConfig
	err := c.doJSON(ctx, http.MethodPut, pathf("/voice-agent/job-config/%s", jobID), cfg, &out)
	return out, err
}

func (c *Client) Voices(ctx context.Context) ([]model.VoiceInfo, error) {
	var out []model.VoiceInfo
	if err := c.doJSON(ctx, http.MethodGet, "/voice-agent/voices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VoiceModels(ctx context.Context) ([]model.VoiceModel, error) {
	var out []model.VoiceModel
	if err := c.doJSON(ctx, http.MethodGet, "/voice-agent/models", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
