package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type specialistFile struct {
	Specialists []Config `yaml:"specialists"`
}

// LoadFile registers every specialist defined in a YAML file. Entries
// that fail validation are logged and skipped so one bad entry does
// not block the rest.
func LoadFile(registry *Registry, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read specialists file: %w", err)
	}
	var file specialistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse specialists file: %w", err)
	}
	for _, cfg := range file.Specialists {
		if err := registry.Register(cfg); err != nil {
			logger.Warn("Skipping invalid specialist entry",
				zap.String("file", path),
				zap.String("specialist", cfg.ID),
				zap.Error(err),
			)
		}
	}
	logger.Info("Specialists loaded from file",
		zap.String("file", path),
		zap.Int("count", len(file.Specialists)),
	)
	return nil
}

// WatchFile re-loads the specialists file whenever it changes, until
// the context is cancelled. Editors often replace files instead of
// writing in place, so the parent directory is watched and events
// filtered by name.
func WatchFile(ctx context.Context, registry *Registry, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := LoadFile(registry, path, logger); err != nil {
					logger.Warn("Specialist reload failed",
						zap.String("file", path),
						zap.Error(err),
					)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Specialist watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
