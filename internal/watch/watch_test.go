package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDeliversMatchingFileChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.html")
	if err := os.WriteFile(target, []byte("<p>v1</p>"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := New(dir, "*.html")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(target, []byte("<p>v2</p>"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	select {
	case got := <-w.Changes:
		if filepath.Base(got) != "page.html" {
			t.Fatalf("changed path = %q, want base name %q", got, "page.html")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a change notification")
	}
}

func TestWatchIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("hi"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := New(dir, "*.html")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(other, []byte("bye"), 0o644); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	select {
	case got := <-w.Changes:
		t.Fatalf("expected no notification for a non-matching file, got %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchCoalescesBurstsIntoOneNotification(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "page.html")
	if err := os.WriteFile(target, []byte("<p>v1</p>"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := New(dir, "*.html")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	w.debounce = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("<p>burst</p>"), 0o644); err != nil {
			t.Fatalf("rewrite file: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the coalesced notification")
	}

	select {
	case got := <-w.Changes:
		t.Fatalf("expected exactly one notification for a debounced burst, got a second: %q", got)
	case <-time.After(300 * time.Millisecond):
	}
}
