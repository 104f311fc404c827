package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"topics_go/models"
	"topics_go/pkg/jsonfile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CategoriesFile = "categories.json"
	TopicsFile     = "topics.json"
)

// JSONStore держит обе коллекции в памяти и после каждого изменения
// целиком переписывает соответствующий файл.
// Все изменения идут под одной блокировкой: запись на диск завершается
// до того, как следующий запрос увидит или изменит коллекцию.
type JSONStore struct {
	mu     sync.RWMutex
	logger *zap.Logger

	categoriesPath string
	topicsPath     string

	categories []models.Category
	topics     []models.Topic

	// хэш последнего содержимого, которое хранилище само прочитало или записало
	fileHash map[string][sha256.Size]byte

	newID func() string
}

// NewJSONStore загружает категории и темы из каталога dataDir.
// Отсутствующий или повреждённый файл не мешает запуску: коллекция начинается пустой.
func NewJSONStore(dataDir string, logger *zap.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &JSONStore{
		logger:         logger,
		categoriesPath: filepath.Join(dataDir, CategoriesFile),
		topicsPath:     filepath.Join(dataDir, TopicsFile),
		fileHash:       make(map[string][sha256.Size]byte),
		newID:          uuid.NewString,
	}
	s.categories = loadCollection[models.Category](s, s.categoriesPath)
	s.topics = loadCollection[models.Topic](s, s.topicsPath)

	logger.Info("[DB INFO] JSON store loaded",
		zap.String("dir", dataDir),
		zap.Int("categories", len(s.categories)),
		zap.Int("topics", len(s.topics)),
	)
	return s, nil
}

// Dir возвращает каталог с файлами данных
func (s *JSONStore) Dir() string { return filepath.Dir(s.categoriesPath) }

// Paths возвращает пути к файлам категорий и тем
func (s *JSONStore) Paths() []string { return []string{s.categoriesPath, s.topicsPath} }

func loadCollection[T any](s *JSONStore, path string) []T {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("[DB WARN] failed to read data file, starting empty", zap.String("path", path), zap.Error(err))
		} else {
			s.logger.Warn("[DB WARN] data file missing, starting empty", zap.String("path", path))
		}
		return []T{}
	}
	items, err := jsonfile.DecodeArray[T](raw)
	if err != nil {
		s.logger.Warn("[DB WARN] malformed data file, starting empty", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	s.fileHash[path] = sha256.Sum256(raw)
	return items
}

func (s *JSONStore) writeLocked(path string, v any) error {
	data, err := jsonfile.MarshalPretty(v)
	if err != nil {
		return err
	}
	if err := jsonfile.WriteAtomic(path, data, 0o644); err != nil {
		return err
	}
	s.fileHash[path] = sha256.Sum256(data)
	return nil
}

func (s *JSONStore) saveCategoriesLocked() error {
	return persistErr("save "+CategoriesFile, s.writeLocked(s.categoriesPath, s.categories))
}

func (s *JSONStore) saveTopicsLocked() error {
	return persistErr("save "+TopicsFile, s.writeLocked(s.topicsPath, s.topics))
}

func (s *JSONStore) categoryIndexLocked(id string) int {
	return slices.IndexFunc(s.categories, func(c models.Category) bool { return c.ID == id })
}

func (s *JSONStore) topicIndexLocked(id string) int {
	return slices.IndexFunc(s.topics, func(t models.Topic) bool { return t.ID == id })
}

// --- Категории ---

func (s *JSONStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories), nil
}

func (s *JSONStore) GetCategory(_ context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.categoryIndexLocked(id)
	if idx == -1 {
		return nil, notFound(EntityCategory)
	}
	c := s.categories[idx]
	return &c, nil
}

func (s *JSONStore) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	name, err := normalizeField("Name", name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{ID: s.newID(), Name: name}
	prev := s.categories
	s.categories = append(slices.Clip(s.categories), c)
	if err := s.saveCategoriesLocked(); err != nil {
		s.categories = prev
		return nil, err
	}
	return &c, nil
}

func (s *JSONStore) UpdateCategory(_ context.Context, id, name string) (*models.Category, error) {
	name, err := normalizeField("Name", name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.categoryIndexLocked(id)
	if idx == -1 {
		return nil, notFound(EntityCategory)
	}
	old := s.categories[idx].Name
	s.categories[idx].Name = name
	if err := s.saveCategoriesLocked(); err != nil {
		s.categories[idx].Name = old
		return nil, err
	}
	c := s.categories[idx]
	return &c, nil
}

// DeleteCategory удаляет категорию вместе со всеми её темами и сохраняет оба файла
func (s *JSONStore) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.categoryIndexLocked(id)
	if idx == -1 {
		return notFound(EntityCategory)
	}

	prevCategories, prevTopics := s.categories, s.topics
	s.categories = slices.Delete(slices.Clone(s.categories), idx, idx+1)
	s.topics = slices.DeleteFunc(slices.Clone(s.topics), func(t models.Topic) bool { return t.CategoryID == id })

	err := s.saveCategoriesLocked()
	if err == nil {
		err = s.saveTopicsLocked()
	}
	if err != nil {
		// Возвращаем прежнее состояние и пытаемся восстановить файлы
		s.categories, s.topics = prevCategories, prevTopics
		if rerr := errors.Join(s.saveCategoriesLocked(), s.saveTopicsLocked()); rerr != nil {
			s.logger.Error("[DB ERROR] failed to restore data files after cascade delete", zap.Error(rerr))
		}
		return err
	}
	return nil
}

// --- Темы ---

func (s *JSONStore) ListTopics(_ context.Context, categoryID string) ([]models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.categoryIndexLocked(categoryID) == -1 {
		return nil, notFound(EntityCategory)
	}
	out := make([]models.Topic, 0)
	for _, t := range s.topics {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *JSONStore) GetTopic(_ context.Context, id string) (*models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.topicIndexLocked(id)
	if idx == -1 {
		return nil, notFound(EntityTopic)
	}
	t := s.topics[idx]
	return &t, nil
}

// CreateTopic сначала проверяет категорию, затем заголовок
func (s *JSONStore) CreateTopic(_ context.Context, categoryID, title string) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryIndexLocked(categoryID) == -1 {
		return nil, notFound(EntityCategory)
	}
	title, err := normalizeField("Title", title)
	if err != nil {
		return nil, err
	}

	t := models.Topic{ID: s.newID(), Title: title, CategoryID: categoryID}
	prev := s.topics
	s.topics = append(slices.Clip(s.topics), t)
	if err := s.saveTopicsLocked(); err != nil {
		s.topics = prev
		return nil, err
	}
	return &t, nil
}

func (s *JSONStore) UpdateTopic(_ context.Context, id, title string) (*models.Topic, error) {
	title, err := normalizeField("Title", title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.topicIndexLocked(id)
	if idx == -1 {
		return nil, notFound(EntityTopic)
	}
	old := s.topics[idx].Title
	s.topics[idx].Title = title
	if err := s.saveTopicsLocked(); err != nil {
		s.topics[idx].Title = old
		return nil, err
	}
	t := s.topics[idx]
	return &t, nil
}

func (s *JSONStore) DeleteTopic(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.topicIndexLocked(id)
	if idx == -1 {
		return notFound(EntityTopic)
	}
	prev := s.topics
	s.topics = slices.Delete(slices.Clone(s.topics), idx, idx+1)
	if err := s.saveTopicsLocked(); err != nil {
		s.topics = prev
		return err
	}
	return nil
}

// --- Перезагрузка ---

// Reload перечитывает оба файла с диска.
// Повреждённый файл не затирает текущую коллекцию в памяти.
func (s *JSONStore) Reload() error {
	_, err1 := s.ReloadIfChanged(s.categoriesPath)
	_, err2 := s.ReloadIfChanged(s.topicsPath)
	return errors.Join(err1, err2)
}

// ReloadIfChanged перечитывает файл, если его содержимое отличается от того,
// что хранилище записало или прочитало последним. Возвращает true, если коллекция обновлена.
func (s *JSONStore) ReloadIfChanged(path string) (bool, error) {
	if path != s.categoriesPath && path != s.topicsPath {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// файл могли заменить через rename, дождёмся следующего события
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	if prev, ok := s.fileHash[path]; ok && prev == sum {
		return false, nil
	}

	switch path {
	case s.categoriesPath:
		items, err := jsonfile.DecodeArray[models.Category](raw)
		if err != nil {
			return false, fmt.Errorf("decode %s: %w", path, err)
		}
		s.categories = items
	case s.topicsPath:
		items, err := jsonfile.DecodeArray[models.Topic](raw)
		if err != nil {
			return false, fmt.Errorf("decode %s: %w", path, err)
		}
		s.topics = items
	}
	s.fileHash[path] = sum
	s.logger.Info("[DB INFO] data file reloaded", zap.String("path", path))
	return true, nil
}

func (s *JSONStore) Close() error { return nil }
