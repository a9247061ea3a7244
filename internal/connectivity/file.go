package connectivity

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// FileSource reads the state from a file holding "online" or "offline".
// A missing file counts as online.
type FileSource struct {
	path string

	mu   sync.Mutex
	last bool
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, last: true}
}

// Path returns the watched file.
func (f *FileSource) Path() string { return f.path }

// Online implements Source.
func (f *FileSource) Online(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = f.read(f.last)
	return f.last
}

// read parses the file. Content it does not recognise keeps prev.
func (f *FileSource) read(prev bool) bool {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return true
	}
	if err != nil {
		logging.Warn("failed to read connectivity file", "path", f.path, logging.KeyError, err)
		return prev
	}
	online, ok := ParseState(string(data))
	if !ok {
		logging.Warn("unrecognised connectivity state", "path", f.path, "content", strings.TrimSpace(string(data)))
		return prev
	}
	return online
}

// Watch implements Source. The parent directory is watched so atomic
// replacements of the file are seen.
func (f *FileSource) Watch(ctx context.Context, fn func(online bool)) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Base(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			f.mu.Lock()
			prev := f.last
			f.last = f.read(prev)
			changed, now := f.last != prev, f.last
			f.mu.Unlock()

			if changed {
				fn(now)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("connectivity watcher error", logging.KeyError, err)
		}
	}
}

// ParseState reads "online"/"offline" and common synonyms.
func ParseState(s string) (online, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online", "on", "up", "true", "1":
		return true, true
	case "offline", "off", "down", "false", "0":
		return false, true
	default:
		return false, false
	}
}

// WriteState records a state for FileSource watchers.
func WriteState(path string, online bool) error {
	state := "offline"
	if online {
		state = "online"
	}
	return storage.SafeWrite(path, []byte(state+"\n"), 0600)
}
