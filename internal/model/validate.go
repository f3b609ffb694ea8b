package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var reJobID = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

const (
	MinTitleLen = 3
	MinBodyLen  = 10
)

// ValidationError is a local input error. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func ValidJobID(id string) bool {
	return reJobID.MatchString(id)
}

func CheckJobID(id string) error {
	if !ValidJobID(id) {
		return &ValidationError{Field: "job_id", Message: fmt.Sprintf("invalid job id %q (want 24 hex characters)", id)}
	}
	return nil
}

func ValidateJobDraft(d JobDraft) error {
	fields := []struct {
		name  string
		value string
		min   int
	}{
		{"title", d.Title, MinTitleLen},
		{"description", d.Description, MinBodyLen},
		{"responsibilities", d.Responsibilities, MinBodyLen},
		{"requirements", d.Requirements, MinBodyLen},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			return &ValidationError{Field: f.name, Message: "is required"}
		}
		if utf8.RuneCountInString(v) < f.min {
			return &ValidationError{Field: f.name, Message: fmt.Sprintf("must be at least %d characters", f.min)}
		}
	}
	return nil
}

// Normalize trims surrounding whitespace from every field.
func (d JobDraft) Normalize() JobDraft {
	return JobDraft{
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		Responsibilities: strings.TrimSpace(d.Responsibilities),
		Requirements:     strings.TrimSpace(d.Requirements),
	}
}

func ValidateCredentials(c Credentials) error {
	if strings.TrimSpace(c.Username) == "" {
		return &ValidationError{Field: "username", Message: "is required"}
	}
	if c.Password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}
	return nil
}

type SkillScore struct {
	Name  string
	Score float64
}

// TopSkills returns up to n skills ordered by score descending, ties by name.
func TopSkills(skills map[string]float64, n int) []SkillScore {
	out := make([]SkillScore, 0, len(skills))
	for name, score := range skills {
		out = append(out, SkillScore{Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (s SkillScore) String() string {
	return fmt.Sprintf("%s (%d%%)", s.Name, int(s.Score*100+0.5))
}

// SortByResumeScore orders candidates best first.
func SortByResumeScore(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].ResumeScore > cands[j].ResumeScore
	})
}

// ScreenBlocker returns why a voice screen cannot start, or "" when it can.
func ScreenBlocker(c Candidate) string {
	switch {
	case strings.TrimSpace(c.Phone) == "":
		return "no phone number available"
	case c.ScreeningInProgress:
		return "screening already in progress"
	case c.Screened():
		return "candidate already screened"
	default:
		return ""
	}
}

func ValidateTemperature(t float64) error {
	if t < 0 || t > 1 {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 1"}
	}
	return nil
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}
