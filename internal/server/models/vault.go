package models

import "time"

// Vault is a persisted time-locked capsule. Files holds blob store keys.
// Status is only ever "active"; whether a vault is ready to open is derived
// from UnlockDate at read time.
type Vault struct {
	ID          string
	UserID      string
	Title       string
	Description string
	UnlockDate  time.Time
	Guardians   []string
	Message     string
	Files       []string
	Status      string
	CreatedAt   time.Time
}
