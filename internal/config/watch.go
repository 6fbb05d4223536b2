package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange whenever the config file at path or any of the extra
// files is written. The config is reloaded on every event; an empty path
// yields DefaultConfig. A failed reload is logged and onChange is skipped, so
// the caller keeps its previous config. Watch returns when ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config), extra ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := extra
	if path != "" {
		files = append([]string{path}, extra...)
	}
	for _, f := range files {
		if err := watcher.Add(f); err != nil {
			return err
		}
	}

	slog.Info("config: watching for changes", "files", files)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// atomic saves arrive as create
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg := DefaultConfig()
			if path != "" {
				cfg, err = Load(path)
				if err != nil {
					slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
					continue
				}
			}

			slog.Info("config: change detected", "file", event.Name)
			onChange(cfg)

			// re-add in case an atomic save replaced the inode
			_ = watcher.Add(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
