package models

import "time"

// RefreshToken belongs to one login session; rotating it keeps SessionID.
type RefreshToken struct {
	ID        string
	UserID    string
	SessionID string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
