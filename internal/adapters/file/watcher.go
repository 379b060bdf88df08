package file

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// DefaultDebounce batches the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// CatalogReloadFunc receives every successfully parsed catalog revision.
type CatalogReloadFunc func(ctx context.Context, registry *entities.Registry) error

// CatalogWatcher reloads a YAML catalog file when it changes on disk.
// The parent directory is watched so atomic replace-by-rename saves are seen.
type CatalogWatcher struct {
	path     string
	onReload CatalogReloadFunc
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending bool
	lastAt  time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCatalogWatcher creates a watcher for path; debounce <= 0 uses DefaultDebounce.
func NewCatalogWatcher(path string, debounce time.Duration, onReload CatalogReloadFunc) (*CatalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &CatalogWatcher{
		path:     abs,
		onReload: onReload,
		debounce: debounce,
		watcher:  watcher,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *CatalogWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	log.Info().Str("path", w.path).Msg("watching catalog file")

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *CatalogWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close catalog watcher")
	}
}

func (w *CatalogWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("catalog watcher error")
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *CatalogWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.lastAt = time.Now()
	w.mu.Unlock()
}

func (w *CatalogWatcher) flush(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastAt) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	registry, err := LoadCatalog(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("ignoring unreadable catalog revision")
		return
	}
	if err := w.onReload(ctx, registry); err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("catalog reload failed")
		return
	}
	log.Info().Str("path", w.path).Int("items", registry.Len()).Int64("version", registry.Version()).Msg("catalog reloaded")
}
