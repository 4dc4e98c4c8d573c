package travelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8000/api"

// TokenSource supplies the bearer credentials of one signed-in user.
// Implementations must be safe for concurrent use.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string)
	Clear()
}

// ErrSessionExpired is returned when a 401 could not be recovered by refreshing the access token.
var ErrSessionExpired = errors.New("travel api session expired")

// Client talks to the travel REST API. The zero value is usable for anonymous calls
// against DefaultBaseURL.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Tokens     TokenSource
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) Client {
	return Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Tokens:     tokens,
	}
}

// WithTokens returns a copy of c that authenticates as tokens.
func (c Client) WithTokens(tokens TokenSource) Client {
	c.Tokens = tokens
	return c
}

func (c Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	var body []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = b
	}

	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	status, b, err := c.send(ctx, method, u, body)
	if err != nil {
		return status, err
	}

	// One refresh attempt per request, never for the refresh call itself.
	if status == http.StatusUnauthorized && c.Tokens != nil && path != refreshPath {
		if c.Tokens.RefreshToken() == "" {
			return status, decodeError(status, b)
		}
		if rerr := c.Refresh(ctx); rerr != nil {
			c.Tokens.Clear()
			return status, fmt.Errorf("%w: %v", ErrSessionExpired, rerr)
		}
		status, b, err = c.send(ctx, method, u, body)
		if err != nil {
			return status, err
		}
	}

	if status < 200 || status >= 300 {
		return status, decodeError(status, b)
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return status, fmt.Errorf("decode travel api response failed: %w body=%s", err, string(b))
		}
	}
	return status, nil
}

func (c Client) send(ctx context.Context, method, u string, body []byte) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Tokens != nil {
		if tok := c.Tokens.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}
