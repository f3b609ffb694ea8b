package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"recruit-console/internal/config"
	"recruit-console/internal/model"
	"recruit-console/internal/session"
)

const (
	testJobID   = "65f0c0ffee0000000000beef"
	testJobID2  = "65f0c0ffee0000000000f00d"
	testToken   = "test-token"
	testCandID  = "cand-1"
	testCandID2 = "cand-2"
)

// fakeBackend serves the subset of the recruiting API the commands use.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	jobs       []model.Job
	cands      map[string][]model.Candidate
	expired    bool
	failSync   map[string]bool
	uploads    int
	lastUpdate model.JobDraft
	screened   []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t: t,
		jobs: []model.Job{
			{ID: testJobID, Title: "Backend Engineer", Description: "Build APIs in Go", Responsibilities: "Own the upload pipeline",
				Requirements: "Five years of Go", CreatedAt: "2026-01-02T10:00:00", TotalCandidates: 2, ResumeScreened: 2},
		},
		cands:    map[string][]model.Candidate{},
		failSync: map[string]bool{},
	}
	b.cands[testJobID] = []model.Candidate{
		{ID: testCandID, JobID: testJobID, Name: "Ada Low", Email: "ada@example.com", ResumeScore: 61.5, Skills: map[string]float64{"go": 0.7}},
		{ID: testCandID2, JobID: testJobID, Name: "Grace High", Email: "grace@example.com", Phone: "+15550100", ResumeScore: 92.25, Skills: map[string]float64{"go": 0.9, "sql": 0.8}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "secret-pass" {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeJSON(w, http.StatusOK, model.AuthResponse{AccessToken: testToken, TokenType: "bearer"})
	})
	mux.HandleFunc("GET /auth/me", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.User{ID: "u1", Email: "recruiter@example.com", FullName: "Rita Recruiter"})
	}))
	mux.HandleFunc("GET /jobs", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.jobs)
	}))
	mux.HandleFunc("GET /jobs/stats", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.JobStats{TotalJobs: 1, TotalCandidates: 2, ResumeScreened: 2})
	}))
	mux.HandleFunc("GET /jobs/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		job, ok := b.job(r.PathValue("id"))
		if !ok {
			writeDetail(w, http.StatusNotFound, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, job)
	}))
	mux.HandleFunc("PUT /jobs/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var draft model.JobDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		b.mu.Lock()
		b.lastUpdate = draft
		b.mu.Unlock()
		job, _ := b.job(r.PathValue("id"))
		job.Title, job.Description, job.Responsibilities, job.Requirements = draft.Title, draft.Description, draft.Responsibilities, draft.Requirements
		writeJSON(w, http.StatusOK, job)
	}))
	mux.HandleFunc("POST /jobs/{id}/sync-candidates", b.authed(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		fail := b.failSync[id]
		b.mu.Unlock()
		if fail {
			writeDetail(w, http.StatusInternalServerError, "sync exploded")
			return
		}
		job, _ := b.job(id)
		writeJSON(w, http.StatusOK, job)
	}))
	mux.HandleFunc("GET /candidates/{job}/candidates", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.cands[r.PathValue("job")])
	}))
	mux.HandleFunc("GET /candidates/{job}/candidates/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, c := range b.cands[r.PathValue("job")] {
			if c.ID == r.PathValue("id") {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Candidate not found")
	}))
	mux.HandleFunc("POST /candidates/{job}/upload", b.authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		b.mu.Lock()
		b.uploads++
		n := b.uploads
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, model.Candidate{ID: "new-" + strings.Repeat("x", n), JobID: r.PathValue("job"), Name: "Uploaded"})
	}))
	mux.HandleFunc("POST /candidates/{job}/{id}/voice-screen", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.screened = append(b.screened, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, model.ScreenResponse{Status: "calling", CallID: "call-1"})
	}))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		expired := b.expired
		b.mu.Unlock()
		if expired || r.Header.Get("Authorization") != "Bearer "+testToken {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		h(w, r)
	}
}

func (b *fakeBackend) job(id string) (model.Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, j := range b.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return model.Job{}, false
}

func (b *fakeBackend) uploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}

func (b *fakeBackend) lastDraft() model.JobDraft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUpdate
}

func (b *fakeBackend) screenedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.screened...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	return config.Config{
		API: config.API{BaseURL: baseURL, RequestTimeout: 5 * time.Second},
		Upload: config.Upload{
			AllowExtensions: []string{".pdf", ".zip"},
			Timeout:         time.Minute,
			ClearDelay:      time.Second,
		},
		Cache:    config.Cache{StaleTime: time.Minute},
		StateDir: t.TempDir(),
	}
}

func signIn(t *testing.T, cfg config.Config) {
	t.Helper()
	if err := session.NewFile(cfg.SessionPath()).SetToken(session.FromAuthResponse(testToken, "bearer")); err != nil {
		t.Fatalf("store session: %v", err)
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()
	runErr := fn()
	_ = w.Close()
	os.Stdout = orig
	return <-done, runErr
}

func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
