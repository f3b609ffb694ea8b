package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"recruit-console/internal/model"
)

// Progress is reported while a request body is being sent.
type Progress struct {
	Loaded int64
	Total  int64
}

// ResumeFile is one file handed to UploadResume. Size <= 0 means unknown.
type ResumeFile struct {
	Name string
	Size int64
	Body io.Reader
}

// UploadResume posts a resume as multipart form data and returns the
// candidate the backend created from it. onProgress is called only when the
// full body length is known.
func (c *Client) UploadResume(ctx context.Context, jobID string, f ResumeFile, onProgress func(Progress)) (model.Candidate, error) {
	head, tail, contentType, err := multipartFrame("file", filepath.Base(f.Name))
	if err != nil {
		return model.Candidate{}, err
	}

	body := io.MultiReader(bytes.NewReader(head), f.Body, bytes.NewReader(tail))
	total := int64(-1)
	if f.Size > 0 {
		total = int64(len(head)) + f.Size + int64(len(tail))
		if onProgress != nil {
			body = &countingReader{r: body, total: total, fn: onProgress}
		}
	}

	req, err := c.newRequest(ctx, http.MethodPost, pathf("/candidates/%s/upload", jobID), body)
	if err != nil {
		return model.Candidate{}, err
	}
	req.Header.Set("Content-Type", contentType)
	if total > 0 {
		req.ContentLength = total
	}

	var out model.Candidate
	if err := c.send(req, &out); err != nil {
		return model.Candidate{}, err
	}
	return out, nil
}

// multipartFrame renders the bytes around a single file part so the body
// can be streamed with a known length.
func multipartFrame(field, filename string) (head, tail []byte, contentType string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": filename,
	}))
	h.Set("Content-Type", contentTypeFor(filename))
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("build multipart header: %w", err)
	}
	head = bytes.Clone(buf.Bytes())
	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("build multipart trailer: %w", err)
	}
	tail = bytes.Clone(buf.Bytes())
	return head, tail, mw.FormDataContentType(), nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

type countingReader struct {
	r      io.Reader
	loaded int64
	total  int64
	fn     func(Progress)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.loaded += int64(n)
		c.fn(Progress{Loaded: c.loaded, Total: c.total})
	}
	return n, err
}
