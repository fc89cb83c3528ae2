// Package secrets reads Docker-style file secrets and watches them for
// rotation at runtime.
package secrets

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DefaultDir is where Docker mounts file secrets inside a container.
const DefaultDir = "/run/secrets"

// Secret file names understood by the service.
const (
	UserSecret       = "STEMgraph_user"
	PasswordSecret   = "STEMgraph_pw"
	WriteTokenSecret = "STEMgraph_write_access"
)

// Read returns the trimmed content of the named secret file under dir.
// The second return is false when the secret is absent or unreadable.
func Read(dir, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}
	return value, true
}

// ChangeCallback is called with the secret name and its new value after a
// watched secret file changes on disk.
type ChangeCallback func(name, value string)

// Watch starts an fsnotify watcher on the secrets directory and reports
// changes to the named secrets until ctx is cancelled. Docker rotates
// secrets by swapping symlinks, which surfaces as Create events, so both
// Create and Write are treated as updates.
func Watch(ctx context.Context, dir string, names []string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	watched := make(map[string]struct{}, len(names))
	for _, n := range names {
		watched[n] = struct{}{}
	}

	logger.Info("secrets watcher: started", slog.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			logger.Info("secrets watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if _, ok := watched[name]; !ok {
				continue
			}
			value, ok := Read(dir, name)
			if !ok {
				logger.Warn("secrets watcher: read failed", slog.String("secret", name))
				continue
			}
			logger.Info("secrets watcher: secret rotated", slog.String("secret", name))
			if cb != nil {
				cb(name, value)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("secrets watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
