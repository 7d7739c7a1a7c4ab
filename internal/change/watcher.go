package change

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/util"
)

// debounceWindow is how long the watcher waits for fs-event bursts to
// settle before delivering a batch, grounded on the teacher-adjacent
// scanner watcher's fixed five-second debounce.
const debounceWindow = 5 * time.Second

// Watcher recursively watches a music folder and delivers debounced
// batches of FileChange to a callback.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher rooted at root, registering every
// non-hidden directory under it.
func NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return fs.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{root: root, watcher: w}, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run blocks, delivering a debounced FileChange batch to onBatch
// whenever fs events settle for debounceWindow, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onBatch func([]catalog.FileChange)) error {
	debounce := time.NewTimer(debounceWindow)
	if !debounce.Stop() {
		<-debounce.C
	}

	var pending []catalog.FileChange

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if strings.Contains(ev.Name, string(filepath.Separator)+".") {
				continue
			}
			if kind, ok := translate(ev.Op); ok {
				pending = append(pending, catalog.FileChange{Kind: kind, Path: ev.Name, AtUnix: time.Now().Unix()})
				debounce.Reset(debounceWindow)
			}
		case <-debounce.C:
			if len(pending) > 0 {
				onBatch(pending)
				pending = nil
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("change: watcher error: %v", err)
		}
	}
}

// translate maps an fsnotify op to a ChangeKind. Renames surface here as
// a Removed for the vacated path; the corresponding Create for the new
// name arrives as its own event, so no OldPath pairing is attempted at
// the watcher level.
func translate(op fsnotify.Op) (catalog.ChangeKind, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return catalog.Added, true
	case op&fsnotify.Write != 0:
		return catalog.Modified, true
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return catalog.Removed, true
	default:
		return 0, false
	}
}
