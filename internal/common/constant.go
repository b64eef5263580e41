// Package common contains shared constants, sentinel errors and small helpers
// used across the EternalVault server and CLI.
package common

// SessionCookieName carries the access token for browser-style clients.
const SessionCookieName = "ev_session"

// RefreshCookieName carries the refresh token next to SessionCookieName.
const RefreshCookieName = "ev_refresh"

// AuthorizationHeader is checked for "Bearer <token>" before the cookie.
const AuthorizationHeader = "Authorization"

// UnlockDateLayout is the wire format of unlock dates (an HTML date input value).
const UnlockDateLayout = "2006-01-02"

// VaultStatusActive is the only status a vault is ever created with.
const VaultStatusActive = "active"

// HealthServiceName is the service reported by the gRPC health endpoint next
// to the overall "" service.
const HealthServiceName = "eternalvault"
