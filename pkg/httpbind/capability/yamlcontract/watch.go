package yamlcontract

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Watcher reloads a YAML descriptor file on every write and hands the
// rebuilt metadata map to onReload, modeled on the reference project's
// filewatcher.Watcher (one fsnotify.Watcher per watched path, a stop
// channel, and a background event loop).
type Watcher struct {
	path     string
	contract *httpbind.Contract
	types    TypeRegistry
	onReload func(*Document, map[string]*httpbind.MethodMetadata, error)

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	logger  *slog.Logger
}

// Watch begins watching path for writes, calling onReload with the result
// of re-parsing the file every time it changes (including, on the first
// call, the initial parse). The caller owns the returned Watcher and must
// call Stop to release it.
func Watch(path string, c *httpbind.Contract, types TypeRegistry, onReload func(*Document, map[string]*httpbind.MethodMetadata, error)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(absPath); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		contract: c,
		types:    types,
		onReload: onReload,
		watcher:  fsw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   slog.Default().With(slog.String("component", "yamlcontract.Watcher"), slog.String("path", absPath)),
	}

	doc, metas, err := Load(absPath, c, types)
	onReload(doc, metas, err)

	go w.eventLoop()
	w.logger.Info("yaml contract watcher started")
	return w, nil
}

// Stop stops the watcher and releases its fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			w.logger.Info("yaml contract watcher stopped")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			doc, metas, err := Load(w.path, w.contract, w.types)
			if err != nil {
				w.logger.Warn("reload failed", "error", err)
			} else {
				w.logger.Info("reloaded yaml contract", "methods", len(metas))
			}
			w.onReload(doc, metas, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("yaml contract watcher error", "error", err)
		}
	}
}
