package manifest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"topics_go/models"

	"go.uber.org/zap"
)

// Populate записывает содержимое манифеста в каталог root и возвращает число записанных файлов.
// Абсолютные пути и пути, выходящие за пределы root, пропускаются.
func Populate(ctx context.Context, root string, entries []models.ManifestEntry, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	count := 0
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		rel, ok := safeRelative(e.Path)
		if !ok {
			logger.Warn("[MANIFEST WARN] skipping unsafe path", zap.Int("index", i), zap.String("path", e.Path))
			continue
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return count, fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, []byte(e.Contents), 0o644); err != nil {
			return count, fmt.Errorf("write %s: %w", rel, err)
		}
		count++
	}
	logger.Info("[MANIFEST] populated", zap.Int("files", count))
	return count, nil
}

// safeRelative нормализует обратные слэши и отбрасывает пути вне корня
func safeRelative(p string) (string, bool) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" || path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", false
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
