package session

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource adapts the manager to oauth2.TokenSource. Each call goes back to
// the manager, so a logout takes effect on the next request.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	token, err := ts.m.GetAccessToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	ts.m.mu.Lock()
	defer ts.m.mu.Unlock()
	if ts.m.cred != nil && ts.m.cred.AccessToken == token {
		return ts.m.cred.Token(), nil
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// HTTPClient returns a client that sets "Authorization: Bearer <access token>"
// on every request. The token is asked for per request; nothing is cached past a logout.
func (m *Manager) HTTPClient(ctx context.Context, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: m.TokenSource(ctx),
			Base:   base,
		},
	}
}
