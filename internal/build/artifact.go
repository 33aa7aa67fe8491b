package build

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ArtifactWaiter waits for a tool to finish writing a file it produces
// after the tool process has already exited.
type ArtifactWaiter struct {
	Attempts int
	Interval time.Duration
	Logger   *logrus.Entry
}

// Wait blocks until path exists, the Attempts*Interval budget runs out or
// ctx is done. It watches the parent directory with fsnotify and polls at
// Interval as a fallback, so it works where watches are unavailable.
func (w ArtifactWaiter) Wait(ctx context.Context, path string) bool {
	if fileExists(path) {
		return true
	}
	if w.Attempts <= 0 || w.Interval <= 0 {
		return false
	}

	deadline := time.NewTimer(time.Duration(w.Attempts) * w.Interval)
	defer deadline.Stop()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	if watcher, err := fsnotify.NewWatcher(); err != nil {
		w.debugf("fsnotify unavailable, polling for %s: %v", path, err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			w.debugf("cannot watch %s, polling: %v", filepath.Dir(path), err)
		} else {
			events = watcher.Events
			watchErrors = watcher.Errors
		}
	}

	// The file may have appeared between the first check and the watch.
	if fileExists(path) {
		return true
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 &&
				filepath.Clean(event.Name) == filepath.Clean(path) && fileExists(path) {
				return true
			}
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			w.debugf("watcher error: %v", err)
		case <-ticker.C:
			if fileExists(path) {
				return true
			}
		case <-deadline.C:
			return fileExists(path)
		case <-ctx.Done():
			return false
		}
	}
}

func (w ArtifactWaiter) debugf(format string, args ...interface{}) {
	if w.Logger != nil {
		w.Logger.Debugf(format, args...)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
