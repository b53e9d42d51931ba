package storage

import (
	"context"
	"errors"

	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
)

// ErrNotFound is returned when a user has no stored profile.
var ErrNotFound = errors.New("not found")

// Storage is the persistence boundary the conversation engine and the
// report generator depend on. Entries are append-only; no update or delete
// operations exist.
type Storage interface {
	// GetLocale returns the user's selected locale, or ErrNotFound for an
	// unknown user.
	GetLocale(ctx context.Context, userID int64) (model.Locale, error)
	// SetLocale upserts the user profile. A new profile starts with
	// FirstTime set; updating an existing profile clears it.
	SetLocale(ctx context.Context, userID int64, loc model.Locale) error
	// IsFirstTime defaults to true for unknown users.
	IsFirstTime(ctx context.Context, userID int64) (bool, error)
	// ClearFirstTime marks the first greeting as consumed.
	ClearFirstTime(ctx context.Context, userID int64) error
	// AppendEntry inserts a ledger entry.
	AppendEntry(ctx context.Context, entry *model.Entry) error
	// Entries returns the user's full history of one kind, oldest first.
	Entries(ctx context.Context, kind model.EntryKind, userID int64) ([]model.Entry, error)
}
