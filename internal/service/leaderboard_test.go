package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
	"github.com/snake-arena/internal/memory"
)

func newLeaderboardService(t *testing.T) (*LeaderboardService, *memory.Store, *domain.User) {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	user := domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user, "credential"))

	cfg := &config.LeaderboardConfig{DefaultLimit: 10, MaxLimit: 100}
	return NewLeaderboardService(store, store, cfg, logger), store, &user
}

func submit(t *testing.T, svc *LeaderboardService, user *domain.User, score int, mode domain.GameMode) *domain.LeaderboardEntry {
	t.Helper()
	entry, err := svc.SubmitScore(context.Background(), user, domain.SubmitScoreRequest{Score: score, Mode: mode})
	require.NoError(t, err)
	return entry
}

func TestSubmitScoreUpdatesHighScore(t *testing.T) {
	svc, store, user := newLeaderboardService(t)

	submit(t, svc, user, 500, domain.GameModeWalls)
	got, err := store.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, got.HighScore)

	// A lower score still lands on the board but never lowers the
	// user's high score.
	submit(t, svc, user, 10, domain.GameModeWalls)
	got, err = store.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, got.HighScore)

	entries, err := svc.Top(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestSubmitScoreValidation(t *testing.T) {
	svc, _, user := newLeaderboardService(t)

	_, err := svc.SubmitScore(context.Background(), user, domain.SubmitScoreRequest{Score: -1, Mode: domain.GameModeWalls})
	assert.ErrorIs(t, err, domain.ErrInvalidScore)

	_, err = svc.SubmitScore(context.Background(), user, domain.SubmitScoreRequest{Score: 100, Mode: "turbo"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestTopOrdering(t *testing.T) {
	svc, _, user := newLeaderboardService(t)

	submit(t, svc, user, 100, domain.GameModeWalls)
	submit(t, svc, user, 300, domain.GameModeWalls)
	submit(t, svc, user, 200, domain.GameModeWalls)

	entries, err := svc.Top(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 200, entries[1].Score)
	assert.Equal(t, 100, entries[2].Score)
}

func TestTopTieBreakKeepsSubmissionOrder(t *testing.T) {
	svc, _, user := newLeaderboardService(t)

	first := submit(t, svc, user, 250, domain.GameModeWalls)
	second := submit(t, svc, user, 250, domain.GameModeWalls)

	entries, err := svc.Top(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}

func TestTopModeFilter(t *testing.T) {
	svc, _, user := newLeaderboardService(t)

	submit(t, svc, user, 100, domain.GameModeWalls)
	submit(t, svc, user, 900, domain.GameModePassThrough)
	submit(t, svc, user, 200, domain.GameModeWalls)

	mode := domain.GameModeWalls
	entries, err := svc.Top(context.Background(), &mode, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.GameModeWalls, e.Mode)
	}

	bad := domain.GameMode("turbo")
	_, err = svc.Top(context.Background(), &bad, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestTopLimitDefaultsAndCap(t *testing.T) {
	svc, _, user := newLeaderboardService(t)

	for i := 0; i < 15; i++ {
		submit(t, svc, user, i*10, domain.GameModeWalls)
	}

	// Non-positive limit falls back to the default.
	entries, err := svc.Top(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	// Limits above the cap are clamped, not rejected.
	entries, err = svc.Top(context.Background(), nil, 5000)
	require.NoError(t, err)
	assert.Len(t, entries, 15)

	entries, err = svc.Top(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

// fakeCache records the pages the service stores and serves them back.
type fakeCache struct {
	pages       map[string][]domain.LeaderboardEntry
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[string][]domain.LeaderboardEntry)}
}

func (c *fakeCache) TopPage(_ context.Context, mode string) ([]domain.LeaderboardEntry, bool) {
	page, ok := c.pages[mode]
	return page, ok
}

func (c *fakeCache) SetTopPage(_ context.Context, mode string, entries []domain.LeaderboardEntry) error {
	c.pages[mode] = entries
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, mode domain.GameMode) error {
	c.invalidated = append(c.invalidated, string(mode))
	delete(c.pages, string(mode))
	delete(c.pages, "")
	return nil
}

func TestTopPopulatesAndServesCache(t *testing.T) {
	svc, _, user := newLeaderboardService(t)
	cache := newFakeCache()
	svc.SetCache(cache)

	submit(t, svc, user, 100, domain.GameModeWalls)

	entries, err := svc.Top(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, cache.pages, "")

	// Submissions invalidate the affected pages.
	submit(t, svc, user, 200, domain.GameModeWalls)
	assert.NotContains(t, cache.pages, "")
	assert.Contains(t, cache.invalidated, "walls")
}

// fakeHub captures broadcast entries.
type fakeHub struct {
	entries []domain.LeaderboardEntry
}

func (h *fakeHub) BroadcastScore(entry domain.LeaderboardEntry) {
	h.entries = append(h.entries, entry)
}

func TestSubmitScoreBroadcasts(t *testing.T) {
	svc, _, user := newLeaderboardService(t)
	hub := &fakeHub{}
	svc.SetHub(hub)

	entry := submit(t, svc, user, 777, domain.GameModePassThrough)

	require.Len(t, hub.entries, 1)
	assert.Equal(t, entry.ID, hub.entries[0].ID)
	assert.Equal(t, 777, hub.entries[0].Score)
}

func TestIngestScoreEvent(t *testing.T) {
	svc, store, user := newLeaderboardService(t)

	err := svc.IngestScoreEvent(context.Background(), domain.ScoreEvent{
		UserID: user.ID,
		Score:  640,
		Mode:   domain.GameModeWalls,
	})
	require.NoError(t, err)

	got, err := store.UserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 640, got.HighScore)

	err = svc.IngestScoreEvent(context.Background(), domain.ScoreEvent{
		UserID: "ghost",
		Score:  100,
		Mode:   domain.GameModeWalls,
	})
	assert.True(t, domain.IsNotFound(err))
}
