// Package netx wraps the plain HTTP transfers the CLI performs against
// presigned object URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Client is the HTTP client used for transfers. Tests may replace it.
var Client = &http.Client{}

// Download streams the body at url into w and returns the number of bytes
// copied. Any non-200 response is reported as an error that includes a
// snippet of the response body.
func Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	return io.Copy(w, resp.Body)
}
