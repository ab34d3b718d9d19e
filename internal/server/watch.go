package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/clocktree/pkg/topology"
)

// watchDebounce collapses the burst of events an editor save produces.
var watchDebounce = 200 * time.Millisecond

// ReloadFunc receives a freshly loaded topology.
type ReloadFunc func(*topology.Topology) error

// Watch reloads the topology at path whenever it changes on disk until ctx is
// cancelled. The parent directory is watched so files replaced by rename keep
// being followed. Load and reload failures are logged and the watch goes on.
func Watch(ctx context.Context, path string, logger *log.Logger, reload ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("watching topology", "path", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			fire = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("topology watch stopped")
			return nil

		case <-fire:
			topo, err := topology.Load(abs)
			if err != nil {
				logger.Warn("topology reload skipped", "path", abs, "err", err)
				continue
			}
			if err := reload(topo); err != nil {
				logger.Warn("topology rejected, keeping previous", "path", abs, "err", err)
				continue
			}
			logger.Info("topology reloaded", "path", abs)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("topology watch error", "err", werr)
		}
	}
}
