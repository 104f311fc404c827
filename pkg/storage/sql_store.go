package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"topics_go/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Dialect описывает различия между поддерживаемыми SQL-бэкендами
type Dialect struct {
	Name       string
	DriverName string
	// Numbered - плейсхолдеры вида $1, $2 вместо ?
	Numbered bool
}

var (
	DialectSQLite   = Dialect{Name: DriverSQLite, DriverName: "sqlite"}
	DialectPostgres = Dialect{Name: DriverPostgres, DriverName: "postgres", Numbered: true}
)

// rebind переводит запрос с плейсхолдерами ? в формат диалекта
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		position BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		position    BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS topics_category_id_idx ON topics (category_id)`,
}

// SQLStore хранит категории и темы в SQLite или PostgreSQL.
// Порядок коллекций задаётся колонкой position.
type SQLStore struct {
	Conn    *sql.DB
	dialect Dialect
	logger  *zap.Logger

	// изменения сериализуются внутри процесса, чтобы position не дублировался
	mu    sync.Mutex
	newID func() string
}

// OpenSQLStore подключается к БД, проверяет соединение и создаёт схему
func OpenSQLStore(ctx context.Context, d Dialect, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: dsn is required", d.Name)
	}
	if d.Name == DriverSQLite {
		if path := sqliteFilePath(dsn); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	conn, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d.Name == DriverSQLite {
		// SQLite допускает одного писателя, а PRAGMA действует на соединение
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	s, err := NewSQLStore(ctx, conn, d, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// sqliteFilePath возвращает путь к файлу БД из DSN или "", если БД в памяти
func sqliteFilePath(dsn string) string {
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return ""
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

// NewSQLStore оборачивает готовое соединение и применяет схему
func NewSQLStore(ctx context.Context, conn *sql.DB, d Dialect, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SQLStore{Conn: conn, dialect: d, logger: logger, newID: uuid.NewString}
	if d.Name == DriverSQLite {
		if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info("[DB INFO] SQL store ready", zap.String("dialect", d.Name))
	return s, nil
}

func (s *SQLStore) q(query string) string { return s.dialect.rebind(query) }

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) categoryExists(ctx context.Context, db queryer, id string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, s.q(`SELECT 1 FROM categories WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("lookup category", err)
	}
	return true, nil
}

func (s *SQLStore) nextPosition(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var pos int64
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM `+table).Scan(&pos)
	return pos, err
}

// --- Категории ---

func (s *SQLStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.Conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY position, id`)
	if err != nil {
		return nil, persistErr("list categories", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, persistErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list categories", err)
	}
	return out, nil
}

func (s *SQLStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	err := s.Conn.QueryRowContext(ctx, s.q(`SELECT id, name FROM categories WHERE id = ?`), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityCategory)
	}
	if err != nil {
		return nil, persistErr("get category", err)
	}
	return &c, nil
}

func (s *SQLStore) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := normalizeField("Name", name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	pos, err := s.nextPosition(ctx, tx, "categories")
	if err != nil {
		return nil, persistErr("next category position", err)
	}
	c := models.Category{ID: s.newID(), Name: name}
	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO categories (id, name, position) VALUES (?, ?, ?)`), c.ID, c.Name, pos); err != nil {
		return nil, persistErr("insert category", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistErr("commit", err)
	}
	return &c, nil
}

func (s *SQLStore) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	name, err := normalizeField("Name", name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Conn.ExecContext(ctx, s.q(`UPDATE categories SET name = ? WHERE id = ?`), name, id)
	if err != nil {
		return nil, persistErr("update category", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, persistErr("update category", err)
	} else if n == 0 {
		return nil, notFound(EntityCategory)
	}
	return &models.Category{ID: id, Name: name}, nil
}

// DeleteCategory удаляет темы категории и саму категорию в одной транзакции
func (s *SQLStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.Conn.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM topics WHERE category_id = ?`), id); err != nil {
		return persistErr("delete topics", err)
	}
	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return persistErr("delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("delete category", err)
	}
	if n == 0 {
		return notFound(EntityCategory)
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit", err)
	}
	return nil
}

// --- Темы ---

func (s *SQLStore) ListTopics(ctx context.Context, categoryID string) ([]models.Topic, error) {
	ok, err := s.categoryExists(ctx, s.Conn, categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(EntityCategory)
	}

	rows, err := s.Conn.QueryContext(ctx, s.q(`SELECT id, title, category_id FROM topics WHERE category_id = ? ORDER BY position, id`), categoryID)
	if err != nil {
		return nil, persistErr("list topics", err)
	}
	defer rows.Close()

	out := make([]models.Topic, 0)
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.CategoryID); err != nil {
			return nil, persistErr("scan topic", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list topics", err)
	}
	return out, nil
}

func (s *SQLStore) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	var t models.Topic
	err := s.Conn.QueryRowContext(ctx, s.q(`SELECT id, title, category_id FROM topics WHERE id = ?`), id).
		Scan(&t.ID, &t.Title, &t.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityTopic)
	}
	if err != nil {
		return nil, persistErr("get topic", err)
	}
	return &t, nil
}

func (s *SQLStore) CreateTopic(ctx context.Context, categoryID, title string) (*models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	ok, err := s.categoryExists(ctx, tx, categoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(EntityCategory)
	}
	title, err = normalizeField("Title", title)
	if err != nil {
		return nil, err
	}

	pos, err := s.nextPosition(ctx, tx, "topics")
	if err != nil {
		return nil, persistErr("next topic position", err)
	}
	t := models.Topic{ID: s.newID(), Title: title, CategoryID: categoryID}
	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO topics (id, title, category_id, position) VALUES (?, ?, ?, ?)`),
		t.ID, t.Title, t.CategoryID, pos); err != nil {
		return nil, persistErr("insert topic", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistErr("commit", err)
	}
	return &t, nil
}

func (s *SQLStore) UpdateTopic(ctx context.Context, id, title string) (*models.Topic, error) {
	title, err := normalizeField("Title", title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Conn.ExecContext(ctx, s.q(`UPDATE topics SET title = ? WHERE id = ?`), title, id)
	if err != nil {
		return nil, persistErr("update topic", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, persistErr("update topic", err)
	} else if n == 0 {
		return nil, notFound(EntityTopic)
	}
	return s.GetTopic(ctx, id)
}

func (s *SQLStore) DeleteTopic(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.Conn.ExecContext(ctx, s.q(`DELETE FROM topics WHERE id = ?`), id)
	if err != nil {
		return persistErr("delete topic", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("delete topic", err)
	}
	if n == 0 {
		return notFound(EntityTopic)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.Conn.Close() }
