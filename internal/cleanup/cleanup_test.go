package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestSweepRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeFile(t, dir, "old.pdf", 48*time.Hour)
	fresh := writeFile(t, dir, "fresh.pdf", time.Minute)

	s := New(dir, 24*time.Hour)
	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old file still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}

func TestSweepWalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "users", "abc123")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := writeFile(t, sub, "stale.pdf", 72*time.Hour)

	s := New(dir, 24*time.Hour)
	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("nested stale file still present")
	}
}

func TestSweepMissingDirIsNoop(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), time.Hour)
	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}

func TestSweepDisabledWithoutConfig(t *testing.T) {
	s := New("", 0)
	if removed, err := s.Sweep(); err != nil || removed != 0 {
		t.Fatalf("Sweep = (%d, %v), want noop", removed, err)
	}
}
