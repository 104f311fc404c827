package storage

import (
	"context"
	"fmt"
	"strings"

	"topics_go/models"

	"go.uber.org/zap"
)

const (
	EntityCategory = "Category"
	EntityTopic    = "Topic"

	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store - хранилище категорий и тем, которым пользуются HTTP-обработчики.
// Все реализации сами сериализуют изменения, поэтому параллельные запросы
// не теряют записи друг друга.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListTopics(ctx context.Context, categoryID string) ([]models.Topic, error)
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	CreateTopic(ctx context.Context, categoryID, title string) (*models.Topic, error)
	UpdateTopic(ctx context.Context, id, title string) (*models.Topic, error)
	DeleteTopic(ctx context.Context, id string) error

	Close() error
}

// Options задаёт выбор бэкенда хранилища
type Options struct {
	Driver  string
	DataDir string
	DSN     string
}

// Open создаёт хранилище по имени драйвера
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	var (
		store Store
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverJSON:
		store, err = NewJSONStore(opts.DataDir, logger)
	case DriverSQLite:
		store, err = OpenSQLStore(ctx, DialectSQLite, opts.DSN, logger)
	case DriverPostgres:
		store, err = OpenSQLStore(ctx, DialectPostgres, opts.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// normalizeField обрезает пробелы и проверяет, что значение не пустое
func normalizeField(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &ValidationError{Field: field}
	}
	return v, nil
}
