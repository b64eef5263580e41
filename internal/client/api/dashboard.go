package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/eternalvault/internal/routes"
)

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	r, _ := jsonRequest(http.MethodGet, routes.Dashboard, nil, true)
	var d Dashboard
	if err := c.do(ctx, r, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Vault(ctx context.Context, id string) (*VaultView, error) {
	r, _ := jsonRequest(http.MethodGet, routes.Dashboard+"/vaults/"+url.PathEscape(id), nil, true)
	var v VaultView
	if err := c.do(ctx, r, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
