// Package auth exchanges a long-lived Spotify refresh token for a
// short-lived access token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-recently-played/internal/config"
)

// ErrNoAccessToken is returned when the token endpoint answers without an
// access token.
var ErrNoAccessToken = errors.New("token response has no access token")

// Exchanger performs the OAuth2 refresh-token grant against Spotify.
type Exchanger struct {
	conf         *oauth2.Config
	refreshToken string
	httpClient   *http.Client
}

// Option configures an Exchanger.
type Option func(*Exchanger)

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) Option {
	return func(e *Exchanger) {
		e.conf.Endpoint.TokenURL = u
	}
}

// WithHTTPClient sets the HTTP client used for the token request.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Exchanger) {
		e.httpClient = hc
	}
}

// New creates an Exchanger for the given credentials. Client credentials are
// sent in the form body alongside the refresh token.
func New(creds config.Credentials, opts ...Option) *Exchanger {
	e := &Exchanger{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   spotifyauth.AuthURL,
				TokenURL:  spotifyauth.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		refreshToken: creds.RefreshToken,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange makes one token request and returns the access token. It does
// not retry.
func (e *Exchanger) Exchange(ctx context.Context) (string, error) {
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	// An expired seed token forces the source to hit the token endpoint.
	src := e.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: e.refreshToken})

	token, err := src.Token()
	if err != nil {
		// oauth2 rejects a 2xx response without access_token using an
		// untyped error.
		if strings.Contains(err.Error(), "missing access_token") {
			return "", fmt.Errorf("refreshing access token: %w: %w", ErrNoAccessToken, err)
		}
		return "", fmt.Errorf("refreshing access token: %w", err)
	}

	return token.AccessToken, nil
}
