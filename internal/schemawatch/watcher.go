// Package schemawatch keeps a schema file loaded and swaps in new versions as
// the file changes on disk.
package schemawatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/internal/schema/loader"
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// Watcher holds the current schema for a file. Readers never block on a
// reload; a failed reload keeps the previous schema.
type Watcher struct {
	path    string
	logger  zerolog.Logger
	metrics *metrics.Collector
	loader  schema.Loader

	current atomic.Pointer[schema.Schema]

	mu       sync.Mutex
	onChange []func(schema.Schema)
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for reload events.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithMetrics records reload results on the collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(w *Watcher) {
		w.metrics = collector
	}
}

// New loads path once and returns a watcher holding it. Call Start to follow
// changes.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("schemawatch: absolute path: %w", err)
	}

	w := &Watcher{
		path:   absPath,
		logger: zerolog.Nop(),
		loader: loader.New(schema.NewLoaderOptions()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	s, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current.Store(&s)
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Schema returns the most recently loaded schema.
func (w *Watcher) Schema() schema.Schema {
	return *w.current.Load()
}

// OnChange registers fn to run after each successful reload.
func (w *Watcher) OnChange(fn func(schema.Schema)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Reload reads the file again. On failure the previous schema stays current.
func (w *Watcher) Reload() error {
	s, err := w.load()
	if err != nil {
		w.metrics.SchemaReload(metrics.ReloadFailed)
		w.logger.Error().Err(err).Str("path", w.path).Msg("schema reload failed, keeping previous schema")
		return err
	}
	w.current.Store(&s)
	w.metrics.SchemaReload(metrics.ReloadSucceeded)
	w.logger.Info().Str("path", w.path).Int("fields", len(s.Fields)).Msg("schema reloaded")

	w.mu.Lock()
	listeners := append([]func(schema.Schema){}, w.onChange...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
	return nil
}

func (w *Watcher) load() (schema.Schema, error) {
	doc, err := w.loader.Load(context.Background(), schema.SourceFromFile(w.path))
	if err != nil {
		return schema.Schema{}, fmt.Errorf("schemawatch: load %s: %w", w.path, err)
	}
	s, err := doc.Schema()
	if err != nil {
		return schema.Schema{}, fmt.Errorf("schemawatch: decode %s: %w", w.path, err)
	}
	return s, nil
}

// Start watches the file's directory so editor rename-on-save is seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return errors.New("schemawatch: already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schemawatch: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("schemawatch: watch directory: %w", err)
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.watchLoop(fw, w.stopCh, w.done)

	w.logger.Info().Str("path", w.path).Msg("watching schema file for changes")
	return nil
}

// Stop ends watching. It is a no-op when not started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, stopCh, done := w.watcher, w.stopCh, w.done
	w.watcher = nil
	w.mu.Unlock()

	if fw == nil {
		return
	}
	close(stopCh)
	fw.Close()
	<-done
}

func (w *Watcher) watchLoop(fw *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")
			_ = w.Reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("schema watcher error")

		case <-stopCh:
			return
		}
	}
}
