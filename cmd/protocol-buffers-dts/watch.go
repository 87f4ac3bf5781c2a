package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the bursts of events editors produce for one save.
const debounce = 100 * time.Millisecond

// watchLoop regenerates on every change of the source file until ctx is done.
// The parent directory is watched so that saves which replace the file are
// seen. Failed runs are logged and do not stop the loop.
func (cmd *cmdGenerate) watchLoop(ctx context.Context) error {
	src, err := filepath.Abs(cmd.srcPath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(src)); err != nil {
		return err
	}
	cmd.log.Info("watching for changes", "file", cmd.srcPath)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != src {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cmd.log.Warn("watch error", "err", err)

		case <-fire:
			fire = nil
			if err := cmd.once(); err != nil {
				cmd.log.Error("generate failed", "file", cmd.srcPath, "err", err)
				continue
			}
			cmd.log.Info("regenerated declarations", "file", cmd.srcPath, "output", cmd.outPath)
		}
	}
}
