package domain

import (
	"strconv"
	"time"
)

// GameMode is the ruleset a score was achieved under. Each mode ranks
// independently when the leaderboard is filtered.
type GameMode string

const (
	GameModeWalls       GameMode = "walls"
	GameModePassThrough GameMode = "pass-through"
)

// Valid reports whether m is one of the defined modes.
func (m GameMode) Valid() bool {
	return m == GameModeWalls || m == GameModePassThrough
}

// Date is a calendar day serialized as YYYY-MM-DD, matching the wire
// format the game client expects for submission dates.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(dateLayout))), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// LeaderboardEntry is one immutable score submission. The username is
// captured at submission time; later profile changes do not rewrite
// history. Entries are never updated or deleted.
type LeaderboardEntry struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
	Mode     GameMode `json:"mode"`
	Date     Date     `json:"date"`
}

// SubmitScoreRequest is the body of POST /leaderboard/.
type SubmitScoreRequest struct {
	Score int      `json:"score"`
	Mode  GameMode `json:"mode"`
}

// ScoreEvent is a score submission arriving through Kafka instead of
// the HTTP endpoint, e.g. from a trusted game server.
type ScoreEvent struct {
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	Mode      GameMode  `json:"mode"`
	GameID    string    `json:"game_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
