package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"recruit-console/internal/localstore"
)

const DefaultResumeName = "resume.pdf"

// Saver is the host's save-file facility.
type Saver interface {
	Save(name string, r io.Reader) (string, error)
}

// DownloadResume streams a candidate's resume into s and returns where it
// was saved.
func (c *Client) DownloadResume(ctx context.Context, jobID, candidateID string, s Saver) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathf("/candidates/%s/candidates/%s/resume", jobID, candidateID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download resume: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeError(resp)
	}

	name := ResumeFileName(resp.Header.Get("Content-Disposition"))
	saved, err := s.Save(name, resp.Body)
	if err != nil {
		return "", fmt.Errorf("save resume %s: %w", name, err)
	}
	return saved, nil
}

// ResumeFileName reads the filename hint from a Content-Disposition value.
// Directory components are dropped; a missing or malformed hint yields
// DefaultResumeName.
func ResumeFileName(contentDisposition string) string {
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return DefaultResumeName
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return DefaultResumeName
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return DefaultResumeName
	}
	return name
}

// DirSaver writes downloads into Dir without overwriting existing files.
type DirSaver struct {
	Dir string
}

func (d DirSaver) Save(name string, r io.Reader) (string, error) {
	dir := strings.TrimSpace(d.Dir)
	if dir == "" {
		dir = "."
	}
	target := localstore.UniquePath(filepath.Join(dir, SafeFileName(name)))
	if _, err := localstore.WriteStream(target, r, 0o644); err != nil {
		return "", err
	}
	return target, nil
}
