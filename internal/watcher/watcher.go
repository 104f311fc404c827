// Package watcher следит за JSON-файлами данных и перечитывает их,
// когда файлы меняют вручную, пока сервер работает.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// Reloader перечитывает файл, если он изменился не самим хранилищем
type Reloader interface {
	ReloadIfChanged(path string) (bool, error)
}

// DataWatcher наблюдает за каталогом, а не за файлами: запись через rename
// заменяет файл целиком, и наблюдение за старым inode теряется.
type DataWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	files    map[string]bool
	reloader Reloader
	logger   *zap.Logger
	debounce time.Duration
}

// New создаёт наблюдатель за файлами files в каталоге dir
func New(dir string, files []string, r Reloader, logger *zap.Logger) (*DataWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[filepath.Clean(f)] = true
	}
	return &DataWatcher{
		watcher:  w,
		dir:      dir,
		files:    set,
		reloader: r,
		logger:   logger,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce меняет интервал склейки событий. Вызывать до Run.
func (dw *DataWatcher) SetDebounce(d time.Duration) { dw.debounce = d }

// Run обрабатывает события до отмены контекста и закрывает наблюдатель
func (dw *DataWatcher) Run(ctx context.Context) error {
	defer func() { _ = dw.watcher.Close() }()

	timer := time.NewTimer(dw.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := make(map[string]struct{})

	dw.logger.Info("[WATCHER] watching data files", zap.String("dir", dw.dir))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-dw.watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			if !dw.files[path] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(dw.debounce)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return nil
			}
			dw.logger.Warn("[WATCHER WARN] watcher error", zap.Error(err))

		case <-timer.C:
			for path := range pending {
				changed, err := dw.reloader.ReloadIfChanged(path)
				if err != nil {
					dw.logger.Warn("[WATCHER WARN] reload failed, keeping current data", zap.String("path", path), zap.Error(err))
					continue
				}
				if changed {
					dw.logger.Info("[WATCHER] reloaded", zap.String("path", path))
				}
			}
			clear(pending)
		}
	}
}
