package config

import (
	"context"
	"fmt"
	"path/filepath"

	"compositor/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path into st whenever the file is written or recreated,
// until ctx is done. A file that fails to parse leaves st unchanged.
// The directory is watched so editors that replace the file are handled.
func Watch(ctx context.Context, path string, st *Store) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != target || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				reload(path, st)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warn("settings watcher", "err", err)
			}
		}
	}()
	return nil
}

func reload(path string, st *Store) {
	s, err := Load(path)
	if err != nil {
		logging.Warn("settings reload failed, keeping previous", "path", path, "err", err)
		return
	}
	st.Set(s)
	logging.SetLevel(s.LogLevel)
	logging.Info("settings reloaded", "path", path)
}
