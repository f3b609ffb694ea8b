package cli

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"recruit-console/internal/api"
	"recruit-console/internal/model"
	"recruit-console/internal/session"
)

func TestLoginStoresSession(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"login", "--username", "rita@example.com", "--password", "secret-pass"})
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "logged in as rita@example.com") {
		t.Fatalf("unexpected output: %q", out)
	}
	if tok := session.NewFile(cfg.SessionPath()).Token(); tok == nil || tok.AccessToken != testToken {
		t.Fatalf("expected stored token, got %+v", tok)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"login", "--username", "rita@example.com", "--password", "wrong-pass"})
	})
	if err == nil || !strings.Contains(err.Error(), "Incorrect username or password") {
		t.Fatalf("expected backend detail in error, got %v", err)
	}
	if strings.Contains(err.Error(), "session expired") {
		t.Fatalf("login failure must not carry the session hint: %v", err)
	}
	if _, statErr := os.Stat(cfg.SessionPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no session file, stat err=%v", statErr)
	}
}

func TestJobsListPrintsTable(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"jobs", "list"})
	})
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	for _, want := range []string{"TITLE", testJobID, "Backend Engineer", "2026-01-02"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestExpiredSessionAddsLoginHint(t *testing.T) {
	b := newFakeBackend(t)
	b.expired = true
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"jobs", "list"})
	})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "run 'recruit-console login'") {
		t.Fatalf("expected login hint, got %v", err)
	}
	if tok := session.NewFile(cfg.SessionPath()).Token(); tok != nil {
		t.Fatalf("expected session cleared after 401, got %+v", tok)
	}
}

func TestJobsUpdateKeepsUnsetFields(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"jobs", "update", "--job", testJobID, "--title", "Staff Engineer"})
	})
	if err != nil {
		t.Fatalf("jobs update: %v", err)
	}
	got := b.lastDraft()
	if got.Title != "Staff Engineer" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Description != "Build APIs in Go" || got.Requirements != "Five years of Go" {
		t.Fatalf("unset fields changed: %+v", got)
	}
}

func TestJobsUpdateValidatesLocally(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"jobs", "update", "--job", testJobID, "--title", "ab"})
	})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if b.lastDraft().Title != "" {
		t.Fatalf("request should not reach the backend, got %+v", b.lastDraft())
	}
}

func TestJobsSyncAllCollectsFailures(t *testing.T) {
	b := newFakeBackend(t)
	b.jobs = append(b.jobs, model.Job{ID: testJobID2, Title: "Data Engineer"})
	b.failSync[testJobID2] = true
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"jobs", "sync-all"})
	})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 jobs failed to sync") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(out, "synced 1/2 jobs") || !strings.Contains(out, "sync exploded") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCandidatesListRankedByResumeScore(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"candidates", "list", "--job", testJobID})
	})
	if err != nil {
		t.Fatalf("candidates list: %v", err)
	}
	grace := strings.Index(out, "Grace High")
	ada := strings.Index(out, "Ada Low")
	if grace < 0 || ada < 0 || grace > ada {
		t.Fatalf("expected Grace before Ada:\n%s", out)
	}
	if !strings.Contains(out, "92.2") && !strings.Contains(out, "92.3") {
		t.Fatalf("expected one-decimal score in output:\n%s", out)
	}
	if !strings.Contains(out, "go (90%)") {
		t.Fatalf("expected top skills in output:\n%s", out)
	}
}

func TestCandidatesScreenRefusesWithoutPhone(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"candidates", "screen", "--job", testJobID, "--id", testCandID})
	})
	if err == nil || !strings.Contains(err.Error(), "no phone number available") {
		t.Fatalf("expected blocker error, got %v", err)
	}
	if ids := b.screenedIDs(); len(ids) != 0 {
		t.Fatalf("screen request sent: %v", ids)
	}

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"candidates", "screen", "--job", testJobID, "--id", testCandID2})
	})
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if !strings.Contains(out, "call_id=call-1") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestUploadNoLiveReportsBatchAndRecordsHistory(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	dir := t.TempDir()
	good := writeTestFile(t, dir, "ada.pdf", []byte("%PDF-1.7\nresume body"))
	bad := writeTestFile(t, dir, "notes.txt", []byte("plain text"))

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"upload", "--no-live", "--job", testJobID, good, bad})
	})
	if err != nil {
		t.Fatalf("upload: %v\n%s", err, out)
	}
	if b.uploadCount() != 1 {
		t.Fatalf("uploads = %d, want 1", b.uploadCount())
	}
	for _, want := range []string{"rejected notes.txt", "unsupported file type .txt", "1 succeeded, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	hist, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"history", "--job", testJobID})
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(hist, "files=1 ok=1 failed=0 rejected=1") {
		t.Fatalf("unexpected history:\n%s", hist)
	}
}

func TestUploadWithOnlyRejectedFilesFails(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	fake := writeTestFile(t, t.TempDir(), "cv.pdf", []byte("not really a pdf"))
	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"upload", "--no-live", "--job", testJobID, fake})
	})
	if err == nil || !strings.Contains(err.Error(), "no acceptable files") {
		t.Fatalf("expected rejection error, got %v", err)
	}
	if b.uploadCount() != 0 {
		t.Fatalf("uploads = %d, want 0", b.uploadCount())
	}
}

func TestSettingsSetThenShow(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	if _, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"settings", "set", "--phase-dwell", "2s", "--allow-ext", ".pdf"})
	}); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"settings", "show"})
	})
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	for _, want := range []string{"phase_dwell: 2s (settings file)", "allow_extensions: .pdf (settings file)", "upload_timeout: 1m0s\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"settings", "reset"})
	}); err != nil {
		t.Fatalf("settings reset: %v", err)
	}
	out, _ = captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"settings", "show"})
	})
	if strings.Contains(out, "(settings file)") {
		t.Fatalf("expected environment values after reset:\n%s", out)
	}
}

func TestSettingsSetRejectsBadDuration(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	_, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"settings", "set", "--upload-timeout", "soon"})
	})
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestDoctorHealthy(t *testing.T) {
	b := newFakeBackend(t)
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	res := doctor(context.Background(), cfg)
	if !res.OK {
		t.Fatalf("expected healthy doctor result: %+v", res.Checks)
	}
	names := make([]string, 0, len(res.Checks))
	for _, c := range res.Checks {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "directory:state,settings,history,api,session,locks" {
		t.Fatalf("unexpected check order: %s", got)
	}
}

func TestDoctorReportsExpiredSession(t *testing.T) {
	b := newFakeBackend(t)
	b.expired = true
	cfg := testConfig(t, b.srv.URL)
	signIn(t, cfg)

	out, err := captureStdout(t, func() error {
		return Run(context.Background(), cfg, []string{"doctor"})
	})
	if err == nil || !strings.Contains(err.Error(), "doctor found problems") {
		t.Fatalf("expected doctor failure, got %v", err)
	}
	if !strings.Contains(out, "[FAIL] session") || !strings.Contains(out, "session expired") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDoctorReportsUnreachableAPI(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	res := doctor(context.Background(), cfg)
	if res.OK {
		t.Fatal("expected doctor failure")
	}
	found := false
	for _, c := range res.Checks {
		if c.Name == "api" {
			found = true
			if c.OK || !strings.Contains(c.Message, "unreachable") {
				t.Fatalf("unexpected api check: %+v", c)
			}
		}
	}
	if !found {
		t.Fatal("api check missing")
	}
}
