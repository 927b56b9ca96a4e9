package domain

// Direction is the heading of a snake in an active game.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Point is a cell on the game board.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ActivePlayer is a snapshot of an in-progress game session, served to
// spectators. Read-only; the feed has no write path.
type ActivePlayer struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Mode      GameMode  `json:"mode"`
	Snake     []Point   `json:"snake"`
	Food      Point     `json:"food"`
	Direction Direction `json:"direction"`
}
