package httpapi

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Watch watches the reports directory for writes to latest.json and
// keeps s's in-memory cache warm. It loads the current file once at
// startup, then blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, reportsDir string) error {
	s.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(reportsDir); err != nil {
		return err
	}

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			s.reload()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != "latest.json" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch reports directory", zap.Error(err))
		}
	}
}

func (s *Server) reload() {
	data, err := s.artifacts.GetBytes(latestKey)
	if err != nil {
		return
	}
	s.cache.set(data)
}
