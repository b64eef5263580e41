// Package api is the CLI's HTTP client for the EternalVault server.
//
// Authenticated calls carry the access token as a bearer header. When the
// server rejects it, the client rotates the pair once through
// /token/refresh and repeats the call, mirroring what a browser session
// does with the refresh cookie.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/routes"
)

// TokenStore persists the session between CLI invocations.
// Load returns zero Tokens when nobody is signed in.
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, t Tokens) error
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  logging.Logger

	refreshMu sync.Mutex
}

func NewClient(baseURL string, tokens TokenStore, timeout time.Duration, l logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			// a gated GET answers 303 /login; that is a rejection, not a page to load
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		tokens: tokens,
		logger: l.With("module", "api"),
	}
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, v any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) send(ctx context.Context, r request, accessToken string) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func rejected(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized {
		return true
	}
	return resp.StatusCode == http.StatusSeeOther && resp.Header.Get("Location") == routes.Login
}

// do performs r and decodes a 2xx JSON body into out when out is not nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var tokens Tokens
	if r.auth {
		var err error
		if tokens, err = c.tokens.Load(ctx); err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if tokens.AccessToken == "" {
			return ErrUnauthorized
		}
	}

	resp, err := c.send(ctx, r, tokens.AccessToken)
	if err != nil {
		return err
	}

	if r.auth && rejected(resp) && tokens.RefreshToken != "" {
		drain(resp)
		c.logger.Debug(ctx, "access token rejected, refreshing", "path", r.path)
		fresh, err := c.refresh(ctx, tokens)
		if err != nil {
			return err
		}
		if resp, err = c.send(ctx, r, fresh.AccessToken); err != nil {
			return err
		}
	}
	defer drain(resp)

	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusSeeOther {
		return &Error{Code: http.StatusUnauthorized, Message: common.ErrorUnauthorized.Error(), Redirect: resp.Header.Get("Location")}
	}
	if resp.StatusCode >= 300 {
		e := &Error{Code: resp.StatusCode}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if len(b) > 0 && json.Unmarshal(b, e) != nil {
			e.Message = strings.TrimSpace(string(b))
		}
		return e
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}

// refresh rotates the token pair. Concurrent callers that lost the race
// reuse the pair the winner stored.
func (c *Client) refresh(ctx context.Context, stale Tokens) (Tokens, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.tokens.Load(ctx)
	if err != nil {
		return Tokens{}, fmt.Errorf("load session: %w", err)
	}
	if current.AccessToken != "" && current.AccessToken != stale.AccessToken {
		return current, nil
	}

	r, err := jsonRequest(http.MethodPost, "/token/refresh", map[string]string{"refresh_token": stale.RefreshToken}, false)
	if err != nil {
		return Tokens{}, err
	}
	resp, err := c.send(ctx, r, "")
	if err != nil {
		return Tokens{}, err
	}
	defer drain(resp)

	var fresh Tokens
	if err := decode(resp, &fresh); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			_ = c.tokens.Save(ctx, Tokens{})
		}
		return Tokens{}, err
	}
	if err := c.tokens.Save(ctx, fresh); err != nil {
		return Tokens{}, fmt.Errorf("save session: %w", err)
	}
	return fresh, nil
}
