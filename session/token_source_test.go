package session_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionerrors "github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestManager_HTTPClient(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("Authorization"))
	}))
	defer api.Close()

	client := f.manager.HTTPClient(ctx, nil)

	f.manager.Login(ctx, "AT1", "RT1", time.Hour)
	resp, err := client.Get(api.URL + "/api/blogs")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "Bearer AT1", string(body))

	f.manager.Logout(ctx)
	_, err = client.Get(api.URL + "/api/blogs")
	require.ErrorIs(t, err, sessionerrors.ErrNotAuthenticated)
}

func TestManager_TokenSource(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)

	_, err := f.manager.TokenSource(ctx).Token()
	require.ErrorIs(t, err, sessionerrors.ErrNotAuthenticated)

	f.manager.Login(ctx, "AT1", "RT1", time.Hour)
	tok, err := f.manager.TokenSource(ctx).Token()
	require.NoError(t, err)
	require.Equal(t, "AT1", tok.AccessToken)
	require.Empty(t, tok.RefreshToken)
	require.Equal(t, testStart.Add(time.Hour), tok.Expiry)
}
