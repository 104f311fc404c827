package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"topics_go/models"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"
)

// Extractor собирает файлы относительно корня Root
type Extractor struct {
	Root string
	// Exclude - точные пути, каталоги-префиксы или glob-шаблоны (поддерживается **)
	Exclude []string
	Logger  *zap.Logger
}

// NewExtractor создаёт Extractor с нормализованным списком исключений
func NewExtractor(root string, exclude []string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	norm := make([]string, 0, len(exclude))
	for _, e := range exclude {
		e = strings.Trim(filepath.ToSlash(strings.TrimSpace(e)), "/")
		e = strings.TrimPrefix(e, "./")
		if e != "" {
			norm = append(norm, e)
		}
	}
	return &Extractor{Root: root, Exclude: norm, Logger: logger}
}

// excluded проверяет относительный путь (с разделителем /) по списку исключений
func (x *Extractor) excluded(rel string) bool {
	for _, pattern := range x.Exclude {
		if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
			return true
		}
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Extract читает файлы и каталоги из include. Отсутствующие записи пропускаются
// с предупреждением, каталоги обходятся рекурсивно в лексикографическом порядке.
// Каждый путь попадает в результат не более одного раза.
func (x *Extractor) Extract(ctx context.Context, include []string) ([]models.ManifestEntry, error) {
	root, err := filepath.Abs(x.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	results := make([]models.ManifestEntry, 0)
	seen := make(map[string]bool)

	add := func(full string) error {
		rel, ok := relative(root, full)
		if !ok {
			x.Logger.Warn("[MANIFEST WARN] skipping path outside root", zap.String("path", full))
			return nil
		}
		if seen[rel] || x.excluded(rel) {
			return nil
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if !utf8.Valid(data) {
			x.Logger.Warn("[MANIFEST WARN] skipping non UTF-8 file", zap.String("path", rel))
			return nil
		}
		seen[rel] = true
		results = append(results, models.ManifestEntry{Path: rel, Contents: string(data)})
		return nil
	}

	for _, line := range include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := filepath.Join(root, filepath.FromSlash(line))
		info, err := os.Stat(target)
		if err != nil {
			x.Logger.Warn("[MANIFEST WARN] skipping entry (does not exist or is inaccessible)", zap.String("entry", line), zap.Error(err))
			continue
		}

		switch {
		case info.Mode().IsRegular():
			if err := add(target); err != nil {
				return nil, err
			}
		case info.IsDir():
			err := filepath.WalkDir(target, func(p string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if d.IsDir() {
					if rel, ok := relative(root, p); ok && p != target && x.excluded(rel) {
						return filepath.SkipDir
					}
					return nil
				}
				// символьные ссылки и специальные файлы не переносим
				if !d.Type().IsRegular() {
					return nil
				}
				return add(p)
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", line, err)
			}
		default:
			x.Logger.Warn("[MANIFEST WARN] skipping entry (not a file or directory)", zap.String("entry", line))
		}
	}

	x.Logger.Info("[MANIFEST] extracted", zap.Int("entries", len(results)))
	return results, nil
}

// relative возвращает путь относительно root с разделителем /
func relative(root, full string) (string, bool) {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return path.Clean(rel), true
}

// ErrInvalidManifest - верхний уровень документа не является массивом
var ErrInvalidManifest = errors.New("manifest must be an array of {path, contents} objects")
