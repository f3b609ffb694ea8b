package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidJobID(t *testing.T) {
	cases := map[string]bool{
		"507f1f77bcf86cd799439011": true,
		"507F1F77BCF86CD799439011": true,
		"507f1f77bcf86cd79943901":  false,
		"507f1f77bcf86cd7994390111": false,
		"507f1f77bcf86cd79943901z": false,
		"":                          false,
	}
	for id, want := range cases {
		if got := ValidJobID(id); got != want {
			t.Fatalf("ValidJobID(%q)=%v want %v", id, got, want)
		}
	}
}

func TestValidateJobDraft(t *testing.T) {
	good := JobDraft{
		Title:            "Backend Engineer",
		Description:      "Build and run services",
		Responsibilities: "Own the upload pipeline",
		Requirements:     "Five years of Go experience",
	}
	if err := ValidateJobDraft(good); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	short := good
	short.Title = "Go"
	err := ValidateJobDraft(short)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}

	blank := good
	blank.Requirements = "   "
	err = ValidateJobDraft(blank)
	if !errors.As(err, &verr) || verr.Field != "requirements" || !strings.Contains(verr.Message, "required") {
		t.Fatalf("expected requirements required error, got %v", err)
	}
}

func TestTopSkills(t *testing.T) {
	skills := map[string]float64{"go": 0.9, "sql": 0.4, "docker": 0.7, "k8s": 0.7}
	got := TopSkills(skills, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 skills, got %d", len(got))
	}
	want := []string{"go", "docker", "k8s"}
	for i, s := range got {
		if s.Name != want[i] {
			t.Fatalf("skill %d: got %q want %q", i, s.Name, want[i])
		}
	}
	if got[0].String() != "go (90%)" {
		t.Fatalf("unexpected skill label %q", got[0].String())
	}
}

func TestScreenBlocker(t *testing.T) {
	score := 0.8
	cases := []struct {
		name string
		c    Candidate
		want string
	}{
		{"ready", Candidate{Phone: "+15550100"}, ""},
		{"no phone", Candidate{}, "no phone number available"},
		{"in progress", Candidate{Phone: "+15550100", ScreeningInProgress: true}, "screening already in progress"},
		{"screened", Candidate{Phone: "+15550100", ScreeningScore: &score}, "candidate already screened"},
	}
	for _, tc := range cases {
		if got := ScreenBlocker(tc.c); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("a long job description", 10); got != "a long ..." {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "hé..." {
		t.Fatalf("unexpected %q", got)
	}
}
