// Package memory implements storage.Storage in process memory. It backs
// tests and ephemeral runs; semantics mirror the sqlite implementation.
package memory

import (
	"context"
	"sync"

	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
	"github.com/bunyodbekab/finans-assistent-bot/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	users   map[int64]*model.User
	entries map[model.EntryKind][]model.Entry
}

func New() *Store {
	return &Store{
		users: make(map[int64]*model.User),
		entries: map[model.EntryKind][]model.Entry{
			model.KindIncome:  nil,
			model.KindExpense: nil,
		},
	}
}

func (s *Store) GetLocale(ctx context.Context, userID int64) (model.Locale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return user.Locale, nil
}

func (s *Store) SetLocale(ctx context.Context, userID int64, loc model.Locale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.Locale = loc
		user.FirstTime = false
		return nil
	}
	s.users[userID] = &model.User{ID: userID, Locale: loc, FirstTime: true}
	return nil
}

func (s *Store) IsFirstTime(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return true, nil
	}
	return user.FirstTime, nil
}

func (s *Store) ClearFirstTime(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.FirstTime = false
	}
	return nil
}

func (s *Store) AppendEntry(ctx context.Context, entry *model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.GenerateID()
	s.entries[entry.Kind] = append(s.entries[entry.Kind], *entry)
	return nil
}

func (s *Store) Entries(ctx context.Context, kind model.EntryKind, userID int64) ([]model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Entry
	for _, entry := range s.entries[kind] {
		if entry.UserID == userID {
			result = append(result, entry)
		}
	}
	return result, nil
}
