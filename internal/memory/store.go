// Package memory implements the store interfaces over process memory.
// It exists as a test double for the service and handler layers; the
// production store is internal/postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/snake-arena/internal/domain"
)

type userRecord struct {
	user         domain.User
	passwordHash string
}

// Store is a mutex-guarded in-memory implementation of the user and
// leaderboard stores. It mirrors the persisted store's semantics:
// unique usernames and emails, immutable entries, ranked reads with
// insertion-order tie-breaks, and an atomic append-plus-reconcile on
// score submission.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	byEmail    map[string]string
	byUsername map[string]string
	entries    []domain.LeaderboardEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*userRecord),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// CreateUser inserts a user, enforcing email and username uniqueness.
func (s *Store) CreateUser(_ context.Context, user domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	if _, ok := s.byUsername[user.Username]; ok {
		return domain.ErrUsernameTaken
	}

	s.users[user.ID] = &userRecord{user: user, passwordHash: passwordHash}
	s.byEmail[user.Email] = user.ID
	s.byUsername[user.Username] = user.ID
	return nil
}

// UserByID returns a copy of the user with the given id.
func (s *Store) UserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := rec.user
	return &user, nil
}

// UserByEmail returns the user and stored credential for an email.
func (s *Store) UserByEmail(_ context.Context, email string) (*domain.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, "", domain.ErrUserNotFound
	}
	rec := s.users[id]
	user := rec.user
	return &user, rec.passwordHash, nil
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := s.users[id].user
	return &user, nil
}

// RecordScore appends an entry and bumps the user's high score if the
// new score exceeds it, atomically under the store lock.
func (s *Store) RecordScore(_ context.Context, userID string, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}

	s.entries = append(s.entries, entry)
	if entry.Score > rec.user.HighScore {
		rec.user.HighScore = entry.Score
	}
	return nil
}

// TopEntries returns entries sorted by score descending; equal scores
// keep submission order (stable sort over the append-ordered log).
func (s *Store) TopEntries(_ context.Context, mode *domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if mode == nil || entry.Mode == *mode {
			ranked = append(ranked, entry)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
