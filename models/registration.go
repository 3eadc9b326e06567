package models

import "time"

type Registration struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}
