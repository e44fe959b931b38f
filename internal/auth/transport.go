package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/learnx/internal/shared"
	"golang.org/x/oauth2"
)

// storeSource adapts a [Store] to [oauth2.TokenSource].
type storeSource struct {
	store *Store
}

func (s storeSource) Token() (*oauth2.Token, error) {
	token, ok := s.store.Token()
	if !ok {
		return nil, shared.ErrMissingToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// TokenSource returns an [oauth2.TokenSource] that reads the store on every call.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeSource{store: s}
}

// Transport attaches the stored bearer token and invalidates it on 401 responses.
//
// Requests made without a stored token are sent unauthenticated; the backend decides.
type Transport struct {
	Store *Store
	Base  http.RoundTripper
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var rt http.RoundTripper = base
	if _, ok := t.Store.Token(); ok {
		rt = &oauth2.Transport{Source: t.Store.TokenSource(), Base: base}
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Store.Invalidate()
	}
	return resp, nil
}

// NewClient returns an [http.Client] whose requests carry the stored token.
func NewClient(store *Store, base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	return &http.Client{
		Transport:     &Transport{Store: store, Base: base.Transport},
		Timeout:       base.Timeout,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
	}
}

// Login exchanges username and password for a token through the backend's OAuth2 password endpoint.
func Login(ctx context.Context, tokenURL, username, password string) (string, error) {
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
	}

	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return tok.AccessToken, nil
}
