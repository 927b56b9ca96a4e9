package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-arena/internal/domain"
)

func TestListIsStable(t *testing.T) {
	registry := NewRegistry()

	first := registry.List()
	require.NotEmpty(t, first)

	second := registry.List()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGet(t *testing.T) {
	registry := NewRegistry()

	player, err := registry.Get("live-1")
	require.NoError(t, err)
	assert.Equal(t, "SnakeMaster", player.Username)
	assert.NotEmpty(t, player.Snake)
	assert.True(t, player.Mode.Valid())

	_, err = registry.Get("no-such-session")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}
