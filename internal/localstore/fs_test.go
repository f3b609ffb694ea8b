package localstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteStreamReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "resume.pdf")

	n, err := WriteStream(path, strings.NewReader("%PDF-1.7 first"), 0o600)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	if n != int64(len("%PDF-1.7 first")) {
		t.Fatalf("unexpected byte count %d", n)
	}
	if _, err := WriteStream(path, strings.NewReader("%PDF-1.7 second"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.7 second" {
		t.Fatalf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owner.json")
	in := LockOwner{Key: "k", PID: 42, CreatedAt: "2026-01-02T03:04:05Z"}
	if err := WriteJSON(path, in, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out LockOwner
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	if got := UniquePath(path); got != path {
		t.Fatalf("expected unchanged path, got %q", got)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := UniquePath(path); got != filepath.Join(dir, "resume (1).pdf") {
		t.Fatalf("unexpected unique path %q", got)
	}
}
