package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
	"github.com/snake-arena/internal/memory"
)

type fakePageCache struct {
	mu    sync.Mutex
	pages map[string][]domain.LeaderboardEntry
}

func newFakePageCache() *fakePageCache {
	return &fakePageCache{pages: make(map[string][]domain.LeaderboardEntry)}
}

func (c *fakePageCache) SetTopPage(_ context.Context, mode string, entries []domain.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[mode] = entries
	return nil
}

func (c *fakePageCache) page(mode string) []domain.LeaderboardEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[mode]
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()

	user := domain.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user, "credential"))

	entries := []domain.LeaderboardEntry{
		{ID: "e1", Username: "alice", Score: 100, Mode: domain.GameModeWalls},
		{ID: "e2", Username: "alice", Score: 300, Mode: domain.GameModePassThrough},
		{ID: "e3", Username: "alice", Score: 200, Mode: domain.GameModeWalls},
	}
	for _, e := range entries {
		require.NoError(t, store.RecordScore(context.Background(), user.ID, e))
	}
	return store
}

func TestRefreshAll(t *testing.T) {
	store := seedStore(t)
	cache := newFakePageCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	refresher := NewRefresher(store, cache, 100, &config.RefreshConfig{Interval: time.Minute}, logger)
	refresher.RefreshAll(context.Background())

	all := cache.page("")
	require.Len(t, all, 3)
	assert.Equal(t, 300, all[0].Score)
	assert.Equal(t, 200, all[1].Score)
	assert.Equal(t, 100, all[2].Score)

	walls := cache.page(string(domain.GameModeWalls))
	require.Len(t, walls, 2)
	for _, e := range walls {
		assert.Equal(t, domain.GameModeWalls, e.Mode)
	}

	passThrough := cache.page(string(domain.GameModePassThrough))
	require.Len(t, passThrough, 1)
}

func TestStartStop(t *testing.T) {
	store := seedStore(t)
	cache := newFakePageCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	refresher := NewRefresher(store, cache, 100, &config.RefreshConfig{Interval: 10 * time.Millisecond}, logger)

	require.NoError(t, refresher.Start(context.Background()))
	assert.True(t, refresher.IsRunning())

	// Wait for at least one tick to populate the cache.
	require.Eventually(t, func() bool {
		return len(cache.page("")) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, refresher.Stop())
	assert.False(t, refresher.IsRunning())
}
