package api

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/eternalvault/internal/routes"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type messageResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id"`
	Redirect string `json:"redirect"`
}

// Register creates an account and returns the server's confirmation text.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (string, error) {
	r, err := jsonRequest(http.MethodPost, routes.Register, credentials{Email: email, Password: password, FullName: fullName}, false)
	if err != nil {
		return "", err
	}
	var res messageResponse
	if err := c.do(ctx, r, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Login signs in and stores the issued token pair.
func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	r, err := jsonRequest(http.MethodPost, routes.Login, credentials{Email: email, Password: password}, false)
	if err != nil {
		return Tokens{}, err
	}
	var t Tokens
	if err := c.do(ctx, r, &t); err != nil {
		return Tokens{}, err
	}
	if err := c.tokens.Save(ctx, t); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

// Logout revokes the session on the server. The stored tokens are left to
// the caller.
func (c *Client) Logout(ctx context.Context) error {
	r, _ := jsonRequest(http.MethodPost, "/logout", nil, true)
	return c.do(ctx, r, nil)
}
