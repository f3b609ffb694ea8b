package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nalgeon/be"
)

func TestUploadResumeMultipartAndProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("%PDF-1.7 resume body "), 4096)

	var gotName, gotType atomic.Value
	var gotSize atomic.Int64
	var gotLen atomic.Int64
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLen.Store(r.ContentLength)
		if r.URL.Path != "/api/v1/candidates/"+testJobID+"/upload" {
			http.NotFound(w, r)
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName.Store(hdr.Filename)
		gotType.Store(hdr.Header.Get("Content-Type"))
		gotSize.Store(int64(len(data)))
		_, _ = io.WriteString(w, `{"id":"c1","job_id":"`+testJobID+`","name":"Ada","resume_score":0.82,"skills":{"go":0.9}}`)
	})
	c, _ := newTestClient(t, h, nil)

	var mu sync.Mutex
	var events []Progress
	cand, err := c.UploadResume(context.Background(), testJobID, ResumeFile{
		Name: filepath.Join("some", "dir", "a.pdf"),
		Size: int64(len(payload)),
		Body: bytes.NewReader(payload),
	}, func(p Progress) {
		mu.Lock()
		events = append(events, p)
		mu.Unlock()
	})
	be.Err(t, err, nil)
	be.Equal(t, cand.ID, "c1")
	be.Equal(t, cand.Skills["go"], 0.9)

	be.Equal(t, gotName.Load().(string), "a.pdf")
	be.Equal(t, gotType.Load().(string), "application/pdf")
	be.Equal(t, gotSize.Load(), int64(len(payload)))

	mu.Lock()
	defer mu.Unlock()
	be.True(t, len(events) > 0)
	last := events[len(events)-1]
	be.Equal(t, last.Loaded, last.Total)
	be.Equal(t, last.Total, gotLen.Load())
	for i := 1; i < len(events); i++ {
		be.True(t, events[i].Loaded >= events[i-1].Loaded)
	}
}

func TestUploadResumeUnknownSizeSkipsProgress(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"id":"c2"}`)
	})
	c, _ := newTestClient(t, h, nil)

	var called atomic.Bool
	_, err := c.UploadResume(context.Background(), testJobID, ResumeFile{
		Name: "b.pdf",
		Body: strings.NewReader("%PDF-1.4 tiny"),
	}, func(Progress) { called.Store(true) })
	be.Err(t, err, nil)
	be.True(t, !called.Load())
}

func TestUploadResumeReturnsDetail(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"corrupt file"}`)
	})
	c, _ := newTestClient(t, h, nil)
	_, err := c.UploadResume(context.Background(), testJobID, ResumeFile{Name: "b.pdf", Size: 4, Body: strings.NewReader("%PDF")}, nil)
	be.Equal(t, Detail(err), "corrupt file")
}

func TestResumeFileName(t *testing.T) {
	cases := map[string]string{
		`attachment; filename="resume_final.pdf"`: "resume_final.pdf",
		`attachment; filename=plain.pdf`:          "plain.pdf",
		`attachment; filename="../../etc/cv.pdf"`: "cv.pdf",
		`attachment`:                              DefaultResumeName,
		``:                                        DefaultResumeName,
		`attachment; filename="unterminated`:      DefaultResumeName,
	}
	for header, want := range cases {
		be.Equal(t, ResumeFileName(header), want)
	}
}

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"resume_final.pdf":   "resume_final.pdf",
		"John Doe.pdf":       "John Doe.pdf",
		"cv.v2.pdf":          "cv.v2.pdf",
		"Jane <CV>.pdf":      "Jane _CV_.pdf",
		"a:b|c?.pdf":         "a_b_c_.pdf",
		"tab\there.pdf":      "tab here.pdf",
		"bell\a.pdf":         "bell.pdf",
		`C:\Users\x\con.pdf`: "con_.pdf",
		"LPT1.tar.gz":        "LPT1_.tar.gz",
		"../../etc/passwd":   "passwd.pdf",
		"noext":              "noext.pdf",
		"trailing. ":         "trailing.pdf",
		".pdf":               "resume.pdf",
		"...":                DefaultResumeName,
	}
	for in, want := range cases {
		be.Equal(t, SafeFileName(in), want)
	}
}

func TestDownloadResume(t *testing.T) {
	content := "%PDF-1.7 downloaded"
	var withHeader atomic.Bool
	withHeader.Store(true)
	var name atomic.Value
	name.Store(`attachment; filename="resume_final.pdf"`)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/candidates/"+testJobID+"/candidates/c1/resume" {
			http.NotFound(w, r)
			return
		}
		if withHeader.Load() {
			w.Header().Set("Content-Disposition", name.Load().(string))
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, content)
	})
	c, _ := newTestClient(t, h, nil)
	dir := t.TempDir()

	saved, err := c.DownloadResume(context.Background(), testJobID, "c1", DirSaver{Dir: dir})
	be.Err(t, err, nil)
	be.Equal(t, saved, filepath.Join(dir, "resume_final.pdf"))
	data, err := os.ReadFile(saved)
	be.Err(t, err, nil)
	be.Equal(t, string(data), content)

	name.Store(`attachment; filename="John Doe cv.v2.pdf"`)
	saved, err = c.DownloadResume(context.Background(), testJobID, "c1", DirSaver{Dir: dir})
	be.Err(t, err, nil)
	be.Equal(t, saved, filepath.Join(dir, "John Doe cv.v2.pdf"))

	withHeader.Store(false)
	saved, err = c.DownloadResume(context.Background(), testJobID, "c1", DirSaver{Dir: dir})
	be.Err(t, err, nil)
	be.Equal(t, saved, filepath.Join(dir, "resume.pdf"))
}

func TestDownloadResumeNotFound(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Resume file not found"}`)
	})
	c, _ := newTestClient(t, h, nil)
	dir := t.TempDir()
	_, err := c.DownloadResume(context.Background(), testJobID, "c1", DirSaver{Dir: dir})
	be.Equal(t, Detail(err), "Resume file not found")

	entries, _ := os.ReadDir(dir)
	be.Equal(t, len(entries), 0)
}
