package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"form-bronze-bot/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound возвращается, когда запись не найдена.
var ErrNotFound = domain.ErrNotFound

// timeLayout: формат хранения времени в базе (UTC, секунды).
const timeLayout = time.RFC3339

// Repository: хранилище бота поверх SQLite.
type Repository struct {
	db   *sql.DB
	path string
	now  func() time.Time
	log  *slog.Logger
}

// Option определяет функциональную опцию для Repository.
type Option func(*Repository)

// WithLogger: опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Open открывает (или создаёт) базу по пути path, применяет схему и миграции.
func Open(ctx context.Context, path string, opts ...Option) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Repository{
		db:   db,
		path: path,
		now:  time.Now,
		log:  slog.Default().With("component", "sqlite"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	r.log.Info("database ready", slog.String("path", path))
	return r, nil
}

// Close закрывает соединение с базой.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping проверяет доступность базы.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) initSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return r.migrate(ctx)
}

// columnMigration добавляет колонку, если её нет в таблице, созданной старой версией бота.
type columnMigration struct {
	table  string
	column string
	ddl    string
}

var migrations = []columnMigration{
	{table: "users", column: "designer_interest", ddl: "ALTER TABLE users ADD COLUMN designer_interest INTEGER DEFAULT 0"},
	{table: "users", column: "designer_interest_at", ddl: "ALTER TABLE users ADD COLUMN designer_interest_at TEXT"},
	{table: "users", column: "city", ddl: "ALTER TABLE users ADD COLUMN city TEXT"},
}

func (r *Repository) migrate(ctx context.Context) error {
	cache := map[string]map[string]bool{}
	for _, m := range migrations {
		cols, ok := cache[m.table]
		if !ok {
			var err error
			cols, err = r.tableColumns(ctx, m.table)
			if err != nil {
				return err
			}
			cache[m.table] = cols
		}
		if cols[m.column] {
			continue
		}
		if _, err := r.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("migrate %s.%s: %w", m.table, m.column, err)
		}
		cols[m.column] = true
		r.log.Info("column added", slog.String("table", m.table), slog.String("column", m.column))
	}
	return nil
}

func (r *Repository) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (r *Repository) stamp() string {
	return r.now().UTC().Truncate(time.Second).Format(timeLayout)
}

// count выполняет запрос вида SELECT COUNT(*).
func (r *Repository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeValue(s sql.NullString) time.Time {
	if t := parseTime(s); t != nil {
		return *t
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Truncate(time.Second).Format(timeLayout), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
