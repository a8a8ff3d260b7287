package authclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/credential"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/jrsteele09/go-booklet-session/internal/utils"
)

// Refresh exchanges a refresh token for a new access token. Only the refresh
// token is sent. A non-2xx status wraps ErrRefreshRejected and a transport
// failure wraps ErrRefreshUnavailable.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (credential.Grant, error) {
	if refreshToken == "" {
		return credential.Grant{}, errors.ErrNoRefreshToken
	}

	var resp authmodel.TokenResponse
	err := c.do(ctx, http.MethodPost, refreshPath, nil, authmodel.RefreshTokenRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		var apiErr *authmodel.APIError
		switch {
		case errors.As(err, &apiErr):
			return credential.Grant{}, fmt.Errorf("[Client Refresh] %w: %w", errors.ErrRefreshRejected, apiErr)
		case errors.Is(err, errors.ErrInvalidResponse):
			return credential.Grant{}, fmt.Errorf("[Client Refresh] %w", err)
		default:
			return credential.Grant{}, fmt.Errorf("[Client Refresh] %w: %w", errors.ErrRefreshUnavailable, err)
		}
	}
	if err := authmodel.Validate(resp); err != nil {
		return credential.Grant{}, errors.Wrapf(err, "[Client Refresh]")
	}

	return credential.Grant{
		AccessToken:  resp.AccessToken,
		RefreshToken: utils.Value(resp.RefreshToken),
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
	}, nil
}
