package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameModeValid(t *testing.T) {
	assert.True(t, GameModeWalls.Valid())
	assert.True(t, GameModePassThrough.Valid())
	assert.False(t, GameMode("turbo").Valid())
	assert.False(t, GameMode("").Valid())
}

func TestDateJSONFormat(t *testing.T) {
	d := NewDate(time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-15"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, parsed.Equal(d.Time))
}
