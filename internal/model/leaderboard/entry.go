package leaderboard

import "time"

// Entry is one leaderboard row.
type Entry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
