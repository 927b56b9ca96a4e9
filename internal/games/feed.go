// Package games serves the read-only spectator feed of active game
// sessions. The registry is seeded with demo snapshots; live session
// ingestion is out of scope for this service.
package games

import (
	"sync"

	"github.com/snake-arena/internal/domain"
)

// Registry holds active-player snapshots for spectating.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	players map[string]domain.ActivePlayer
}

// NewRegistry creates a registry pre-populated with demo sessions.
func NewRegistry() *Registry {
	r := &Registry{
		players: make(map[string]domain.ActivePlayer),
	}
	for _, p := range seedPlayers() {
		r.order = append(r.order, p.ID)
		r.players[p.ID] = p
	}
	return r
}

// List returns all active-player snapshots in stable order.
func (r *Registry) List() []domain.ActivePlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]domain.ActivePlayer, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

// Get returns the snapshot for one session id.
func (r *Registry) Get(id string) (*domain.ActivePlayer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player, ok := r.players[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return &player, nil
}

func seedPlayers() []domain.ActivePlayer {
	return []domain.ActivePlayer{
		{
			ID:       "live-1",
			Username: "SnakeMaster",
			Score:    850,
			Mode:     domain.GameModeWalls,
			Snake: []domain.Point{
				{X: 10, Y: 10}, {X: 9, Y: 10}, {X: 8, Y: 10}, {X: 7, Y: 10},
			},
			Food:      domain.Point{X: 15, Y: 12},
			Direction: domain.DirectionRight,
		},
		{
			ID:       "live-2",
			Username: "PixelPro",
			Score:    620,
			Mode:     domain.GameModePassThrough,
			Snake: []domain.Point{
				{X: 5, Y: 8}, {X: 5, Y: 9}, {X: 5, Y: 10},
			},
			Food:      domain.Point{X: 2, Y: 3},
			Direction: domain.DirectionUp,
		},
		{
			ID:       "live-3",
			Username: "NeonNinja",
			Score:    410,
			Mode:     domain.GameModeWalls,
			Snake: []domain.Point{
				{X: 12, Y: 4}, {X: 13, Y: 4}, {X: 14, Y: 4},
			},
			Food:      domain.Point{X: 8, Y: 16},
			Direction: domain.DirectionLeft,
		},
	}
}
