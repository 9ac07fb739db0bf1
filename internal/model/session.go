package model

import "time"

// Session is an authenticated user session resolved from a bearer token.
type Session struct {
	UserID    int64     `json:"user_id"`
	SteamID   string    `json:"steam_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
