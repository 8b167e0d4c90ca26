package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventCallback receives watcher-driven index changes. kind is one of
// "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// renameSettleDelay is how long the watcher waits after a rename before
// running a full reconcile pass.
const renameSettleDelay = 200 * time.Millisecond

// Watch follows filesystem events under the vault root and feeds them to
// the syncer until ctx is cancelled, so edits made outside the API still
// flow into the vector index. cb, when non-nil, runs after every
// successful index mutation.
func Watch(ctx context.Context, syncer *Syncer, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	wt := &watcher{fsw: fsw, syncer: syncer, root: vaultRoot, logger: logger, cb: cb}
	if err := wt.watchTree(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))
	return wt.loop(ctx)
}

type watcher struct {
	fsw    *fsnotify.Watcher
	syncer *Syncer
	root   string
	logger *slog.Logger
	cb     EventCallback

	// resyncC stays nil, and therefore inert in the select, until the
	// first rename schedules a reconcile.
	resync  *time.Timer
	resyncC <-chan time.Time
}

func (wt *watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if wt.resync != nil {
				wt.resync.Stop()
			}
			wt.logger.Info("watcher: stopped")
			return nil

		case <-wt.resyncC:
			if _, err := wt.syncer.Sync(ctx); err != nil {
				wt.logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-wt.fsw.Events:
			if !ok {
				return nil
			}
			wt.handle(ctx, ev)

		case err, ok := <-wt.fsw.Errors:
			if !ok {
				return nil
			}
			wt.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func (wt *watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			wt.adoptDir(ctx, ev.Name)
			return
		}
	}
	if !strings.HasSuffix(ev.Name, ".md") {
		return
	}
	rel, err := filepath.Rel(wt.root, ev.Name)
	if err != nil {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		wt.indexFile(ctx, rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		wt.dropFile(ctx, rel, "delete")

	case ev.Op&fsnotify.Rename != 0:
		// Rename reports the old path only; the destination shows up as
		// a separate Create when it lands inside a watched directory.
		// Drop the old entry now and let a settled reconcile pass catch
		// anything the events missed.
		wt.dropFile(ctx, rel, "rename")
		wt.scheduleResync()
	}
}

func (wt *watcher) scheduleResync() {
	if wt.resync == nil {
		wt.resync = time.NewTimer(renameSettleDelay)
		wt.resyncC = wt.resync.C
		return
	}
	wt.resync.Reset(renameSettleDelay)
}

func (wt *watcher) indexFile(ctx context.Context, rel, kind string) {
	data, err := wt.syncer.files.Read(rel)
	if err != nil {
		wt.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := wt.syncer.IndexPath(ctx, rel, data); err != nil {
		wt.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wt.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wt.notify(kind, rel)
}

func (wt *watcher) dropFile(ctx context.Context, rel, cause string) {
	if err := wt.syncer.RemovePath(ctx, rel); err != nil {
		wt.logger.Warn("watcher: remove failed",
			slog.String("path", rel),
			slog.String("cause", cause),
			slog.String("error", err.Error()))
		return
	}
	wt.logger.Debug("watcher: removed", slog.String("path", rel), slog.String("cause", cause))
	wt.notify("deleted", rel)
}

// adoptDir starts watching a directory created at runtime and indexes any
// notes it already contains. Editors that move whole folders into the
// vault produce a single Create event for the directory.
func (wt *watcher) adoptDir(ctx context.Context, dir string) {
	if err := wt.watchTree(dir); err != nil {
		wt.logger.Warn("watcher: add new dir failed", slog.String("path", dir), slog.String("error", err.Error()))
	} else {
		wt.logger.Debug("watcher: watching new dir", slog.String("path", dir))
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(wt.root, path)
		if relErr != nil {
			return nil
		}
		wt.indexFile(ctx, rel, "created")
		return nil
	})
}

// watchTree registers dir and every directory below it.
func (wt *watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return wt.fsw.Add(path)
		}
		return nil
	})
}

func (wt *watcher) notify(kind, rel string) {
	if wt.cb != nil {
		wt.cb(kind, rel)
	}
}
