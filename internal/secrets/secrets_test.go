package secrets

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, UserSecret), []byte("neo4j\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, ok := Read(dir, UserSecret)
	if !ok {
		t.Fatal("expected secret to be readable")
	}
	if got != "neo4j" {
		t.Errorf("got %q, want trimmed %q", got, "neo4j")
	}
}

func TestRead_Missing(t *testing.T) {
	if _, ok := Read(t.TempDir(), PasswordSecret); ok {
		t.Error("expected missing secret to report not ok")
	}
}

func TestRead_Empty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, WriteTokenSecret), []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := Read(dir, WriteTokenSecret); ok {
		t.Error("expected blank secret to report not ok")
	}
}

func TestWatch_ReportsRotation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, WriteTokenSecret), []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	values := map[string]string{}
	notify := make(chan struct{}, 8)

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, []string{WriteTokenSecret}, logger, func(name, value string) {
			mu.Lock()
			values[name] = value
			mu.Unlock()
			notify <- struct{}{}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, WriteTokenSecret), []byte("rotated"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-notify:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for rotation callback")
	}

	mu.Lock()
	got := values[WriteTokenSecret]
	mu.Unlock()
	if got != "rotated" {
		t.Errorf("callback value = %q, want %q", got, "rotated")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := make(chan string, 8)
	go func() {
		_ = Watch(ctx, dir, []string{UserSecret}, logger, func(name, _ string) {
			notify <- name
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-notify:
		t.Errorf("unexpected callback for %q", name)
	case <-time.After(300 * time.Millisecond):
	}
}
