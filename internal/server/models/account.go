// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a login identity. Its id is shared with the user's Profile.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the public part of a user, created at registration.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// DisplayName is the full name, or the email when no name was given.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
