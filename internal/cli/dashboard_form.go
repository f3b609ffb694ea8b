package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"recruit-console/internal/model"
)

type dashFormKind int

const (
	dashFormLogin dashFormKind = iota
	dashFormJobCreate
	dashFormJobEdit
	dashFormUpload
)

type dashFieldKind int

const (
	dashFieldString dashFieldKind = iota
	dashFieldSecret
)

type dashFormField struct {
	Key      string
	Label    string
	Help     string
	Kind     dashFieldKind
	Value    string
	Required bool
}

type dashForm struct {
	Kind   dashFormKind
	Title  string
	JobID  string
	Fields []dashFormField
	Index  int
	Input  textinput.Model
	Error  string
	Saving bool
}

func newLoginForm(width int, username string) *dashForm {
	f := &dashForm{
		Kind:  dashFormLogin,
		Title: "Sign in",
		Fields: []dashFormField{
			{Key: "username", Label: "Email", Help: "Recruiter account email", Kind: dashFieldString, Required: true, Value: username},
			{Key: "password", Label: "Password", Kind: dashFieldSecret, Required: true},
		},
	}
	if username != "" {
		f.Index = 1
	}
	return f.withInput(width)
}

func newJobForm(existing *model.Job, width int) *dashForm {
	f := &dashForm{Kind: dashFormJobCreate, Title: "New Job"}
	var job model.Job
	if existing != nil {
		job = *existing
		f.Kind = dashFormJobEdit
		f.Title = "Edit Job: " + model.Truncate(job.Title, 40)
		f.JobID = job.ID
	}
	f.Fields = []dashFormField{
		{Key: "title", Label: "Title", Help: fmt.Sprintf("At least %d characters", model.MinTitleLen), Required: true, Value: job.Title},
		{Key: "description", Label: "Description", Help: fmt.Sprintf("At least %d characters", model.MinBodyLen), Required: true, Value: job.Description},
		{Key: "responsibilities", Label: "Responsibilities", Help: fmt.Sprintf("At least %d characters", model.MinBodyLen), Required: true, Value: job.Responsibilities},
		{Key: "requirements", Label: "Requirements", Help: fmt.Sprintf("At least %d characters", model.MinBodyLen), Required: true, Value: job.Requirements},
	}
	return f.withInput(width)
}

func newUploadForm(jobID string, allow []string, width int) *dashForm {
	f := &dashForm{
		Kind:  dashFormUpload,
		Title: "Upload Resumes",
		JobID: jobID,
		Fields: []dashFormField{
			{
				Key:      "files",
				Label:    "Files",
				Help:     "Comma separated paths or globs (" + strings.Join(allow, ", ") + ")",
				Required: true,
			},
		},
	}
	return f.withInput(width)
}

func (f *dashForm) withInput(width int) *dashForm {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4096
	input.Width = clampInt(width-8, 20, 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (f *dashForm) resize(width int) {
	if f == nil {
		return
	}
	f.Input.Width = clampInt(width-8, 20, 120)
}

func (f *dashForm) currentField() dashFormField {
	if len(f.Fields) == 0 {
		return dashFormField{}
	}
	if f.Index < 0 {
		f.Index = 0
	}
	if f.Index >= len(f.Fields) {
		f.Index = len(f.Fields) - 1
	}
	return f.Fields[f.Index]
}

func (f *dashForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	v := f.Input.Value()
	if f.Fields[f.Index].Kind != dashFieldSecret {
		v = strings.TrimSpace(v)
	}
	f.Fields[f.Index].Value = v
}

func (f *dashForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	curr := f.currentField()
	if curr.Kind == dashFieldSecret {
		f.Input.EchoMode = textinput.EchoPassword
	} else {
		f.Input.EchoMode = textinput.EchoNormal
	}
	f.Input.SetValue(curr.Value)
	f.Input.CursorEnd()
}

func (f *dashForm) values() (map[string]string, error) {
	if f == nil {
		return nil, errors.New("internal form error")
	}
	vals := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		v := field.Value
		if field.Required && strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s is required", strings.ToLower(field.Label))
		}
		vals[field.Key] = v
	}
	return vals, nil
}

func (f *dashForm) toCredentials() (model.Credentials, error) {
	vals, err := f.values()
	if err != nil {
		return model.Credentials{}, err
	}
	creds := model.Credentials{Username: strings.TrimSpace(vals["username"]), Password: vals["password"]}
	return creds, model.ValidateCredentials(creds)
}

func (f *dashForm) toJobDraft() (model.JobDraft, error) {
	vals, err := f.values()
	if err != nil {
		return model.JobDraft{}, err
	}
	draft := model.JobDraft{
		Title:            vals["title"],
		Description:      vals["description"],
		Responsibilities: vals["responsibilities"],
		Requirements:     vals["requirements"],
	}.Normalize()
	return draft, model.ValidateJobDraft(draft)
}

// toPaths expands the upload field into file paths. Glob patterns that
// match nothing are kept as-is so the batch reports them.
func (f *dashForm) toPaths() ([]string, error) {
	vals, err := f.values()
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, part := range strings.Split(vals["files"], ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[") {
			matches, err := filepath.Glob(p)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", p, err)
			}
			if len(matches) > 0 {
				paths = append(paths, matches...)
				continue
			}
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, errors.New("files is required")
	}
	return paths, nil
}
