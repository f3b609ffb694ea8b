package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is one entry of a selection. Open may be nil when the content is not
// available for sniffing; Size <= 0 means unknown.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

var DefaultAllow = []string{".pdf", ".zip"}

var (
	zipMagic      = []byte("PK\x03\x04")
	emptyZipMagic = []byte("PK\x05\x06")
	oleMagic      = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var signatures = map[string][][]byte{
	".pdf":  {[]byte("%PDF-")},
	".zip":  {zipMagic, emptyZipMagic},
	".docx": {zipMagic},
	".doc":  {oleMagic},
}

var typeNames = map[string]string{
	".pdf":  "PDF",
	".zip":  "ZIP archive",
	".docx": "Word document",
	".doc":  "Word document",
}

func LocalFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func normalizeAllow(allow []string) []string {
	if len(allow) == 0 {
		return DefaultAllow
	}
	out := make([]string, 0, len(allow))
	for _, ext := range allow {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return DefaultAllow
	}
	return out
}

// screen reports why f must not be uploaded, or "" when it may.
func screen(f File, allow []string) string {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return "file name is empty"
	}
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, a := range allow {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		if ext == "" {
			return fmt.Sprintf("file has no extension (allowed: %s)", strings.Join(allow, ", "))
		}
		return fmt.Sprintf("unsupported file type %s (allowed: %s)", ext, strings.Join(allow, ", "))
	}
	if f.Open == nil {
		return ""
	}
	magics, ok := signatures[ext]
	if !ok {
		return ""
	}
	head, err := readHead(f, len(oleMagic))
	if err != nil {
		return fmt.Sprintf("cannot read file: %v", err)
	}
	for _, m := range magics {
		if bytes.HasPrefix(head, m) {
			return ""
		}
	}
	return fmt.Sprintf("content is not a valid %s", typeNames[ext])
}

func readHead(f File, n int) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}
