package platform

import (
	"context"
	"io"
	"net/http"
)

// fetchBytes downloads media from its public URL so it can be re-uploaded to
// vendors that take binary uploads instead of pull-from-URL (LinkedIn,
// Pinterest video).
func fetchBytes(ctx context.Context, c *Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Code: ErrCodeUnknown, Platform: c.platform, Message: "build media download request", Err: err}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, NewNetworkError(c.platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(c.platform, resp.StatusCode, "media download failed: "+rawURL)
	}

	return io.ReadAll(resp.Body)
}
