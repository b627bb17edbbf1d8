package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haskoe/ledger/config"
)

// debounceDelay absorbs editors writing a file in several steps.
const debounceDelay = 100 * time.Millisecond

// Watch regenerates period whenever a table or template changes, until ctx
// is cancelled. fn receives the outcome of every regeneration. Changes to the
// master data only take effect after NewContext, so the context is reloaded
// before each run.
func Watch(ctx context.Context, c *Context, period string, fn func(*Generation, error)) error {
	return WatchInputs(ctx, c.Settings, period, c.Logger, func() {
		fresh, err := NewContext(ctx, c.Settings, c.Logger)
		if err != nil {
			fn(nil, err)
			return
		}
		c = fresh
		fn(c.Generate(ctx, period))
	})
}

// WatchInputs calls onChange, debounced, whenever a file in the master data,
// period or template directory changes. It blocks until ctx is cancelled;
// onChange runs on the calling goroutine.
func WatchInputs(ctx context.Context, s *config.Settings, period string, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs := []string{s.MasterDataPath(""), s.PeriodPath(period, ""), s.TemplateDir}
	watched := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.WarnContext(ctx, "Failed to watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directories to watch for %s", s.CompanyDir())
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.DebugContext(ctx, "Input changed", "file", event.Name, "op", event.Op.String())

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "File watcher error", "error", err)
		}
	}
}
