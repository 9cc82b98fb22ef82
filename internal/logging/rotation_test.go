package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_Rotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	defer rw.Close()

	chunk := []byte(strings.Repeat("x", 600*1024))
	for range 3 {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected first backup: %v", err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Errorf("expected second backup: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("backup beyond MaxBackups exists: %v", err)
	}
	if rw.Size() != int64(len(chunk)) {
		t.Errorf("Size() = %d, want %d", rw.Size(), len(chunk))
	}
}

func TestRotatingWriter_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rw, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}

	for range 4 {
		_, _ = rw.Write([]byte(strings.Repeat("y", 1024)))
	}
	_ = rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("rotation happened with MaxSizeMB = 0")
	}
	if _, err := rw.Write([]byte("z")); err == nil {
		t.Error("Write() after Close() should fail")
	}
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, _ = rw.Write([]byte("new\n"))
	_ = rw.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "existing\nnew\n" {
		t.Errorf("file content = %q", data)
	}
}
