// Package spotify fetches a user's listening history from the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is the Spotify Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1"

	recentlyPlayedPath = "/me/player/recently-played"

	// MaxLimit is the largest page the recently-played endpoint serves.
	MaxLimit = 50
)

// Sentinel errors.
var (
	// ErrMalformedResponse is returned when a response body does not match
	// the expected record shapes.
	ErrMalformedResponse = errors.New("malformed recently-played response")

	// ErrNoAccessToken is returned when RecentlyPlayed is called without a token.
	ErrNoAccessToken = errors.New("missing access token")
)

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("spotify api: %d %s", e.StatusCode, e.Message)
}

// Client calls the recently-played endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecentlyPlayed fetches at most limit plays made after the given cursor.
// The after parameter is omitted from the request when after is empty.
// limit is clamped to 1..MaxLimit.
func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string, limit int, after string) (*RecentlyPlayed, error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(min(max(limit, 1), MaxLimit)))
	if after != "" {
		params.Set("after", after)
	}

	reqURL := c.baseURL + recentlyPlayedPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil {
			apiErr.Message = er.Error.Message
		}
		return nil, apiErr
	}

	var page RecentlyPlayed
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for i, item := range page.Items {
		if err := Validate(item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedResponse, i, err)
		}
	}

	return &page, nil
}
