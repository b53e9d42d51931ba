// Package sqlite implements storage.Storage on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// storedDateFormat keeps a fixed-width fraction so the lexicographic
// ORDER BY on the text column is also chronological. RFC3339Nano trims
// trailing zeros, which breaks ordering within a second.
const storedDateFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and applies the
// embedded migrations.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetLocale(ctx context.Context, userID int64) (model.Locale, error) {
	var language string
	err := s.db.QueryRowContext(ctx,
		`SELECT language FROM users WHERE user_id = ?`, userID,
	).Scan(&language)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get locale: %w", err)
	}
	loc, ok := model.ParseLocale(language)
	if !ok {
		return "", fmt.Errorf("stored locale %q is invalid", language)
	}
	return loc, nil
}

func (s *Store) SetLocale(ctx context.Context, userID int64, loc model.Locale) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, language, first_time) VALUES (?, ?, 1)
		ON CONFLICT (user_id) DO UPDATE SET language = excluded.language, first_time = 0`,
		userID, string(loc),
	)
	if err != nil {
		return fmt.Errorf("set locale: %w", err)
	}
	return nil
}

func (s *Store) IsFirstTime(ctx context.Context, userID int64) (bool, error) {
	var first bool
	err := s.db.QueryRowContext(ctx,
		`SELECT first_time FROM users WHERE user_id = ?`, userID,
	).Scan(&first)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get first_time: %w", err)
	}
	return first, nil
}

func (s *Store) ClearFirstTime(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_time = 0 WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("clear first_time: %w", err)
	}
	return nil
}

func (s *Store) AppendEntry(ctx context.Context, entry *model.Entry) error {
	entry.GenerateID()
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, user_id, date, amount, currency, comment)
		VALUES (?, ?, ?, ?, ?, ?)`, tableFor(entry.Kind)),
		entry.ID,
		entry.UserID,
		entry.Date.UTC().Format(storedDateFormat),
		entry.Amount.String(),
		string(entry.Currency),
		entry.Comment,
	)
	if err != nil {
		return fmt.Errorf("append %s entry: %w", entry.Kind, err)
	}
	return nil
}

func (s *Store) Entries(ctx context.Context, kind model.EntryKind, userID int64) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, user_id, date, amount, currency, comment
		FROM %s WHERE user_id = ? ORDER BY date ASC`, tableFor(kind)),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s entries: %w", kind, err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var (
			entry        model.Entry
			date, amount string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &date, &amount, &entry.Currency, &entry.Comment); err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", kind, err)
		}
		entry.Kind = kind
		entry.Date, err = time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("parse entry date %q: %w", date, err)
		}
		// Rows whose stored amount does not parse are dropped rather than
		// failing the whole report.
		entry.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s entries: %w", kind, err)
	}
	return entries, nil
}

func tableFor(kind model.EntryKind) string {
	if kind == model.KindExpense {
		return "expenses"
	}
	return "incomes"
}
