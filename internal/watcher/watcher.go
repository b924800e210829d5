// Package watcher follows a local vault directory and reports note changes.
// It keeps the checksum of every note it has seen so that saves which do
// not change content are not reported.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/vault"
)

const reconcileDelay = 200 * time.Millisecond

// Store records when the vault was last seen changing.
type Store interface {
	TouchNoteScanned(ctx context.Context, at time.Time) error
}

// Notifier receives note change events.
type Notifier interface {
	PublishNoteEvent(kind, path string)
}

// Watcher tracks note checksums under a vault root.
type Watcher struct {
	vault    *vault.FS
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	sums map[string]string
}

// New creates a Watcher. store and notifier may be nil.
func New(v *vault.FS, store Store, notifier Notifier, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		vault:    v,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sums:     make(map[string]string),
	}
}

// Known reports whether path (slash-separated, relative to the root) is
// currently tracked.
func (w *Watcher) Known(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.sums[path]
	return ok
}

// Prime records the checksum of every note on disk without reporting
// anything. Run calls it before watching.
func (w *Watcher) Prime(ctx context.Context) (int, error) {
	files, err := w.vault.Files(ctx)
	if err != nil {
		return 0, err
	}
	sums := make(map[string]string, len(files))
	for _, p := range files {
		data, err := w.vault.Read(ctx, p)
		if err != nil {
			continue
		}
		sums[p] = contentSum(data)
	}
	w.mu.Lock()
	w.sums = sums
	w.mu.Unlock()
	return len(sums), nil
}

// Run watches the vault root until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass against the disk.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.vault.Root()
	if err := addDirsRecursive(fw, root); err != nil {
		return err
	}
	n, err := w.Prime(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", root), slog.Int("notes", n))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile(ctx)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if hidden(info.Name()) {
						continue
					}
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Notes may already be inside before the watch was added.
					w.reconcile(ctx)
					continue
				}
			}

			if !vault.IsNote(ev.Name) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.changed(ctx, rel)
			case ev.Op&fsnotify.Remove != 0:
				w.removed(ctx, rel)
			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old path only; the new one arrives as
				// a Create if it stays inside a watched directory.
				w.removed(ctx, rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// changed re-reads a note and reports it when its content differs from the
// last version seen.
func (w *Watcher) changed(ctx context.Context, rel string) {
	data, err := w.vault.Read(ctx, rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	sum := contentSum(data)

	w.mu.Lock()
	prev, known := w.sums[rel]
	w.sums[rel] = sum
	w.mu.Unlock()

	if known && prev == sum {
		return
	}
	kind := sse.NoteUpdated
	if !known {
		kind = sse.NoteCreated
	}
	w.report(ctx, kind, rel)
}

func (w *Watcher) removed(ctx context.Context, rel string) {
	w.mu.Lock()
	_, known := w.sums[rel]
	delete(w.sums, rel)
	w.mu.Unlock()

	if known {
		w.report(ctx, sse.NoteDeleted, rel)
	}
}

// reconcile compares the tracked notes with the disk: stale entries are
// reported deleted, untracked or changed files are reported as such.
func (w *Watcher) reconcile(ctx context.Context) {
	files, err := w.vault.Files(ctx)
	if err != nil {
		w.logger.Warn("watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}
	onDisk := make(map[string]struct{}, len(files))
	for _, p := range files {
		onDisk[p] = struct{}{}
	}

	w.mu.Lock()
	var stale []string
	for p := range w.sums {
		if _, ok := onDisk[p]; !ok {
			stale = append(stale, p)
		}
	}
	w.mu.Unlock()

	for _, p := range stale {
		w.removed(ctx, p)
	}
	for _, p := range files {
		w.changed(ctx, p)
	}
}

func (w *Watcher) report(ctx context.Context, kind, rel string) {
	w.logger.Debug("watcher: note changed", slog.String("path", rel), slog.String("op", kind))
	if w.store != nil {
		if err := w.store.TouchNoteScanned(ctx, w.now()); err != nil {
			w.logger.Warn("watcher: touch metadata failed", slog.String("error", err.Error()))
		}
	}
	if w.notifier != nil {
		w.notifier.PublishNoteEvent(kind, rel)
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// contentSum is the hex SHA-256 of a note's bytes.
func contentSum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
