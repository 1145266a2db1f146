package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a rule directory and reloads the catalog when the manifest
// or a predicate file changes. Editors fire bursts of events per save, so
// changes are debounced before Diff/Load runs.
type Watcher struct {
	dir      string
	loader   *Loader
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher builds a rule-directory watcher.
func NewWatcher(dir string, loader *Loader, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		loader:   loader,
		logger:   logger,
		debounce: 500 * time.Millisecond,
	}
}

// Run watches until the context is cancelled. A failed reload keeps the
// previous catalog live and waits for the next change.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = fw.Close()
	}()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	if err := fw.Add(filepath.Join(w.dir, QueryPrefix)); err != nil {
		w.logger.Warn("queries directory not watchable yet", "dir", w.dir, "error", err)
	}

	var pending *time.Timer
	pendingC := make(chan time.Time, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(w.debounce, func() {
				select {
				case pendingC <- time.Now():
				default:
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("rule watcher error", "error", err)
		case <-pendingC:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	src := NewDirSource(w.dir)
	changed, err := w.loader.Diff(ctx, src)
	if err != nil {
		w.logger.Error("rule catalog diff failed", "error", err)
		return
	}
	if !changed {
		return
	}
	if _, err := w.loader.Load(ctx, src); err != nil {
		w.logger.Error("rule catalog reload failed", "error", err)
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == ManifestName || strings.HasSuffix(name, ".sql")
}
