// Package api is the typed client for the recruiting backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"recruit-console/internal/session"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL    string
	Session    session.Store
	HTTPClient *http.Client
	Logger     *slog.Logger

	// OnUnauthorized runs after any 401 response, once the session has
	// been cleared.
	OnUnauthorized func()
}

type Client struct {
	baseURL string
	http    *http.Client
	session session.Store
	auth    *authTransport
	log     *slog.Logger
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}
	if opts.Session == nil {
		opts.Session = session.NewMemory(nil)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		*hc = *opts.HTTPClient
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	auth := &authTransport{next: next, session: opts.Session, log: log}
	auth.SetUnauthorizedHandler(opts.OnUnauthorized)
	hc.Transport = auth

	return &Client{
		baseURL: base,
		http:    hc,
		session: opts.Session,
		auth:    auth,
		log:     log,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Session() session.Store {
	return c.session
}

// SetUnauthorizedHandler replaces the 401 hook. A nil fn disables it.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.auth.SetUnauthorizedHandler(fn)
}

// authTransport attaches the bearer token and handles 401 globally, for
// every call made through the client.
type authTransport struct {
	next     http.RoundTripper
	session  session.Store
	log      *slog.Logger
	onUnauth atomic.Pointer[func()]
}

func (t *authTransport) SetUnauthorizedHandler(fn func()) {
	if fn == nil {
		t.onUnauth.Store(nil)
		return
	}
	t.onUnauth.Store(&fn)
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(requestIDHeader) == "" {
		r.Header.Set(requestIDHeader, uuid.NewString())
	}
	if tok := t.session.Token(); tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(r)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	if err != nil {
		t.log.Debug("api request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", r.Header.Get(requestIDHeader), "err", err)
		return nil, err
	}
	t.log.Debug("api request",
		"method", r.Method, "path", r.URL.Path, "status", resp.StatusCode,
		"request_id", r.Header.Get(requestIDHeader), "duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		if err := t.session.Clear(); err != nil {
			t.log.Warn("clear session after 401", "err", err)
		}
		if fn := t.onUnauth.Load(); fn != nil {
			(*fn)()
		}
	}
	return resp, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, nil), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send executes req and decodes a JSON response into out when out is not nil.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
