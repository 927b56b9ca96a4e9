package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
)

// ScoreStore is the leaderboard store capability. RecordScore must
// apply the entry append and the high-score reconciliation as one
// atomic unit.
type ScoreStore interface {
	RecordScore(ctx context.Context, userID string, entry domain.LeaderboardEntry) error
	TopEntries(ctx context.Context, mode *domain.GameMode, limit int) ([]domain.LeaderboardEntry, error)
}

// PageCache caches ranked leaderboard pages. May be absent (nil) in
// tests; the service then serves every read from the store.
type PageCache interface {
	TopPage(ctx context.Context, mode string) ([]domain.LeaderboardEntry, bool)
	SetTopPage(ctx context.Context, mode string, entries []domain.LeaderboardEntry) error
	Invalidate(ctx context.Context, mode domain.GameMode) error
}

// Broadcaster pushes accepted submissions to live spectators.
type Broadcaster interface {
	BroadcastScore(entry domain.LeaderboardEntry)
}

// LeaderboardService provides submission and ranked-query logic.
type LeaderboardService struct {
	scores ScoreStore
	users  UserStore
	cache  PageCache
	hub    Broadcaster
	config *config.LeaderboardConfig
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	scores ScoreStore,
	users UserStore,
	cfg *config.LeaderboardConfig,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		scores: scores,
		users:  users,
		config: cfg,
		logger: logger,
	}
}

// SetCache attaches the leaderboard page cache.
func (s *LeaderboardService) SetCache(cache PageCache) {
	s.cache = cache
}

// SetHub attaches the websocket hub for live broadcasts.
func (s *LeaderboardService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// SubmitScore validates and records a submission for an authenticated
// user. The entry keeps the server's clock as its date, so clients
// cannot backdate scores. Returns the created entry.
func (s *LeaderboardService) SubmitScore(ctx context.Context, user *domain.User, req domain.SubmitScoreRequest) (*domain.LeaderboardEntry, error) {
	if req.Score < 0 {
		return nil, domain.ErrInvalidScore
	}
	if !req.Mode.Valid() {
		return nil, domain.ErrInvalidMode
	}

	entry := domain.LeaderboardEntry{
		ID:       uuid.New().String(),
		Username: user.Username,
		Score:    req.Score,
		Mode:     req.Mode,
		Date:     domain.NewDate(time.Now()),
	}

	if err := s.scores.RecordScore(ctx, user.ID, entry); err != nil {
		return nil, fmt.Errorf("recording score: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, entry.Mode); err != nil {
			s.logger.Warn("failed to invalidate leaderboard cache", "mode", entry.Mode, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastScore(entry)
	}

	s.logger.Info("score recorded",
		"user_id", user.ID,
		"username", user.Username,
		"score", entry.Score,
		"mode", entry.Mode,
	)

	return &entry, nil
}

// Top returns the ranked leaderboard, optionally filtered by mode.
// A non-positive limit falls back to the configured default; limits
// above the configured maximum are capped. Served from the page cache
// when warm, from the store (repopulating the cache) otherwise.
func (s *LeaderboardService) Top(ctx context.Context, mode *domain.GameMode, limit int) ([]domain.LeaderboardEntry, error) {
	if mode != nil && !mode.Valid() {
		return nil, domain.ErrInvalidMode
	}
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	modeKey := ""
	if mode != nil {
		modeKey = string(*mode)
	}

	if s.cache != nil {
		if page, ok := s.cache.TopPage(ctx, modeKey); ok {
			if len(page) > limit {
				page = page[:limit]
			}
			return page, nil
		}
	}

	// Fetch a full page so the cache can serve any limit up to the cap.
	page, err := s.scores.TopEntries(ctx, mode, s.config.MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTopPage(ctx, modeKey, page); err != nil {
			s.logger.Warn("failed to populate leaderboard cache", "mode", modeKey, "error", err)
		}
	}

	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

// IngestScoreEvent applies a score event from the Kafka pipeline. The
// event carries a user id instead of a bearer token; the user must
// still resolve before the submission goes through the same path as
// an HTTP submission.
func (s *LeaderboardService) IngestScoreEvent(ctx context.Context, event domain.ScoreEvent) error {
	user, err := s.users.UserByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("resolving user %q: %w", event.UserID, err)
	}

	_, err = s.SubmitScore(ctx, user, domain.SubmitScoreRequest{
		Score: event.Score,
		Mode:  event.Mode,
	})
	return err
}
