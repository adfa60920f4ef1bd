package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/locus/internal/kv"
	"github.com/fakeyudi/locus/internal/logging"
)

// Watch reloads settings whenever the file backing store changes, so edits
// made from another process (e.g. `locus config set`) reach a running
// session. Each distinct value is sent on the returned channel, which is
// closed when ctx is done.
func Watch(ctx context.Context, store kv.Store) (<-chan Settings, error) {
	fb, ok := store.(kv.FileBacked)
	if !ok {
		return nil, errors.New("settings store is not file backed")
	}
	path := filepath.Clean(fb.Path())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	last, err := Load(store)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan Settings, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if r, ok := store.(kv.Reloader); ok {
					if err := r.Reload(); err != nil {
						logging.Warn().Err(err).Msg("settings reload failed")
						continue
					}
				}
				s, err := Load(store)
				if err != nil {
					logging.Warn().Err(err).Msg("settings reload failed")
					continue
				}
				if s == last {
					continue
				}
				last = s
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn().Err(err).Msg("settings watcher error")
			}
		}
	}()
	return out, nil
}
