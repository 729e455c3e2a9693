package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/salmonumbrella/harp-cli/internal/schema"
)

// renderDelay is how long the document must stay quiet after a change
// before it is rendered. One save often arrives as a truncate followed by
// several writes.
const renderDelay = 100 * time.Millisecond

// watchPreview renders the document at path, then again once per save
// until ctx is cancelled or the process is interrupted. Render failures are
// reported and the loop keeps waiting for the next save.
func watchPreview(ctx context.Context, path string, set *schema.Set) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	watcher, err := newWatcherFunc()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, which drops a watch on the
	// file itself; watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	logger := loggerFromContext(ctx).With("path", abs)
	errOut := stderrFromContext(ctx)
	status := stylerFor(errOut)
	quiet := output.QuietFromContext(ctx)

	render := func() {
		p, err := loadPreview(ctx, abs, set)
		if err == nil {
			err = renderPreview(ctx, p)
		}
		if err != nil {
			if effectiveErrorFormat(ctx) == "text" {
				status.Failure(errOut, err.Error())
			} else {
				printCommandError(ctx, err)
			}
			return
		}
		if !quiet {
			status.Success(errOut, fmt.Sprintf("rendered %s", path))
		}
	}

	render()
	logger.Debug("watching for changes")

	settle := time.NewTimer(renderDelay)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watch stopped")
			return nil
		case <-settle.C:
			render()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			logger.Debug("document event", "op", event.Op.String())
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				settle.Reset(renderDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
