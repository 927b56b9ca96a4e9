package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/snake-arena/internal/config"
	"github.com/snake-arena/internal/domain"
)

// scoreSource is the slice of the leaderboard store the refresher reads.
type scoreSource interface {
	TopEntries(ctx context.Context, mode *domain.GameMode, limit int) ([]domain.LeaderboardEntry, error)
}

// pageCache is the slice of the redis cache the refresher writes.
type pageCache interface {
	SetTopPage(ctx context.Context, mode string, entries []domain.LeaderboardEntry) error
}

// Refresher periodically rebuilds the cached leaderboard pages from
// the persisted store, so the cache stays warm between submissions and
// recovers after a cold start or a redis flush.
type Refresher struct {
	scores   scoreSource
	cache    pageCache
	pageSize int
	config   *config.RefreshConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewRefresher creates a new cache refresher. pageSize is the number
// of entries cached per page, normally the configured maximum query
// limit.
func NewRefresher(
	scores scoreSource,
	cache pageCache,
	pageSize int,
	cfg *config.RefreshConfig,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		scores:   scores,
		cache:    cache,
		pageSize: pageSize,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop
func (w *Refresher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("cache refresher started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background refresh loop
func (w *Refresher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("cache refresher stopped")
	return nil
}

// run is the main worker loop
func (w *Refresher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RefreshAll(ctx)
		}
	}
}

// RefreshAll rebuilds every cached page: one per mode plus the page
// spanning all modes. Also used at startup to warm the cache.
func (w *Refresher) RefreshAll(ctx context.Context) {
	start := time.Now()

	pages := []struct {
		key  string
		mode *domain.GameMode
	}{
		{key: "", mode: nil},
		{key: string(domain.GameModeWalls), mode: modePtr(domain.GameModeWalls)},
		{key: string(domain.GameModePassThrough), mode: modePtr(domain.GameModePassThrough)},
	}

	refreshed := 0
	for _, page := range pages {
		entries, err := w.scores.TopEntries(ctx, page.mode, w.pageSize)
		if err != nil {
			w.logger.Error("failed to load leaderboard page", "mode", page.key, "error", err)
			continue
		}
		if err := w.cache.SetTopPage(ctx, page.key, entries); err != nil {
			w.logger.Error("failed to store leaderboard page", "mode", page.key, "error", err)
			continue
		}
		refreshed++
	}

	w.logger.Info("cache refresh completed",
		"duration", time.Since(start),
		"pages", refreshed,
	)
}

// IsRunning returns whether the refresher is currently running
func (w *Refresher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func modePtr(m domain.GameMode) *domain.GameMode {
	return &m
}
