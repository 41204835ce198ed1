package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/publora/publora/internal/models"
)

const maxErrorBodySize = 4 << 10

// Request describes one vendor call. Body is JSON-marshaled when set, Form
// wins over Body, Raw wins over both (binary uploads).
type Request struct {
	Method      string
	URL         string
	Token       string
	Query       url.Values
	Header      http.Header
	Body        any
	Form        url.Values
	Raw         []byte
	ContentType string
	Out         any
}

// Client wraps the vendor HTTP dialect: bearer auth, JSON in/out and
// normalization of failures into the error taxonomy.
type Client struct {
	hc       *http.Client
	platform models.Platform
	logger   *slog.Logger
}

func NewClient(p models.Platform, hc *http.Client, logger *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{hc: hc, platform: p, logger: logger}
}

// Do executes the request and decodes the JSON response into r.Out when set.
// Non-2xx becomes API_ERROR carrying the response body, transport failures
// become NETWORK_ERROR. The response headers are returned for vendors that
// put results there (LinkedIn x-restli-id).
func (c *Client) Do(ctx context.Context, r *Request) (http.Header, error) {
	var body io.Reader
	contentType := r.ContentType

	switch {
	case r.Raw != nil:
		body = bytes.NewReader(r.Raw)
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.Body != nil:
		buf, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &Error{Code: ErrCodeUnknown, Platform: c.platform, Message: "encode request body", Err: err}
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	reqURL := r.URL
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL, body)
	if err != nil {
		return nil, &Error{Code: ErrCodeUnknown, Platform: c.platform, Message: "build request", Err: err}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewNetworkError(c.platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		apiErr := NewAPIError(c.platform, resp.StatusCode, string(raw))
		if resp.StatusCode == http.StatusUnauthorized {
			apiErr.Code = ErrCodeTokenExpired
			apiErr.Message = "access token rejected, please reconnect the account"
		}
		c.logger.Error("vendor request failed",
			"platform", c.platform,
			"url", r.URL,
			"status", resp.StatusCode)
		return resp.Header, apiErr
	}

	if r.Out != nil {
		if err := json.NewDecoder(resp.Body).Decode(r.Out); err != nil && err != io.EOF {
			return resp.Header, &Error{Code: ErrCodeUnknown, Platform: c.platform, Message: "decode response body", Err: err}
		}
	}

	return resp.Header, nil
}

func (c *Client) GetJSON(ctx context.Context, rawURL, token string, out any) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodGet, URL: rawURL, Token: token, Out: out})
	return err
}

func (c *Client) PostJSON(ctx context.Context, rawURL, token string, body, out any) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodPost, URL: rawURL, Token: token, Body: body, Out: out})
	return err
}

func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, header http.Header, out any) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodPost, URL: rawURL, Form: form, Header: header, Out: out})
	return err
}

func (c *Client) Delete(ctx context.Context, rawURL, token string) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodDelete, URL: rawURL, Token: token})
	return err
}
