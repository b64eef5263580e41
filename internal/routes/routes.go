// Package routes names the navigable screens of the application. Handlers
// and clients use these values for redirects instead of literal strings.
package routes

const (
	Home        = "/"
	Login       = "/login"
	Register    = "/register"
	Dashboard   = "/dashboard"
	CreateVault = "/create-vault"
)
