package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"recruit-console/internal/model"
	"recruit-console/internal/session"
)

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.AuthResponse, error) {
	if err := model.ValidateCredentials(creds); err != nil {
		return model.AuthResponse{}, err
	}
	form := url.Values{}
	form.Set("username", strings.TrimSpace(creds.Username))
	form.Set("password", creds.Password)

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return model.AuthResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out model.AuthResponse
	if err := c.send(req, &out); err != nil {
		return model.AuthResponse{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return model.AuthResponse{}, fmt.Errorf("login: backend returned an empty access token")
	}
	if err := c.session.SetToken(session.FromAuthResponse(out.AccessToken, out.TokenType)); err != nil {
		return model.AuthResponse{}, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if strings.TrimSpace(reg.Email) == "" {
		return model.User{}, &model.ValidationError{Field: "email", Message: "is required"}
	}
	if reg.Password == "" {
		return model.User{}, &model.ValidationError{Field: "password", Message: "is required"}
	}
	if strings.TrimSpace(reg.FullName) == "" {
		return model.User{}, &model.ValidationError{Field: "full_name", Message: "is required"}
	}
	var out model.User
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", reg, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

// Logout forgets the local token. The backend keeps no session state.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) LoggedIn() bool {
	tok := c.session.Token()
	return tok != nil && tok.AccessToken != ""
}
