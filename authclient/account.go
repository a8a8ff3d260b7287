package authclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
)

func (c *Client) LoginPassword(ctx context.Context, emailOrPhone, password string) (authmodel.AuthResponse, error) {
	req := authmodel.LoginRequest{EmailOrPhone: emailOrPhone, Password: password}
	if err := authmodel.Validate(req); err != nil {
		return authmodel.AuthResponse{}, errors.Wrapf(errors.ErrInvalidCredentials, "[Client LoginPassword] %s", err.Error())
	}
	return c.authenticate(ctx, "LoginPassword", loginPasswordPath, nil, req)
}

func (c *Client) LoginOTP(ctx context.Context, emailOrPhone, otp string) (authmodel.AuthResponse, error) {
	query := url.Values{"email_or_phone": {emailOrPhone}, "otp": {otp}}
	return c.authenticate(ctx, "LoginOTP", loginOTPPath, query, nil)
}

// Activate confirms a new account with the OTP sent for the activation purpose.
func (c *Client) Activate(ctx context.Context, email, otp string) (authmodel.AuthResponse, error) {
	req := authmodel.ActivateRequest{Email: email, OTP: otp}
	if err := authmodel.Validate(req); err != nil {
		return authmodel.AuthResponse{}, errors.Wrapf(errors.ErrInvalidCredentials, "[Client Activate] %s", err.Error())
	}
	return c.authenticate(ctx, "Activate", activatePath, nil, req)
}

func (c *Client) RecoverAccount(ctx context.Context, email, otp string) (authmodel.AuthResponse, error) {
	query := url.Values{"email": {email}, "otp": {otp}}
	return c.authenticate(ctx, "RecoverAccount", recoverAccountPath, query, nil)
}

func (c *Client) SendOTP(ctx context.Context, emailOrPhone string, purpose authmodel.OTPPurpose) error {
	if !purpose.IsValid() {
		return fmt.Errorf("[Client SendOTP] unknown otp purpose %q", purpose)
	}
	query := url.Values{"email_or_phone": {emailOrPhone}, "purpose": {string(purpose)}}
	if err := c.do(ctx, http.MethodPost, sendOTPPath, query, nil, nil); err != nil {
		return fmt.Errorf("[Client SendOTP] %w", err)
	}
	return nil
}

func (c *Client) DeactivateAccount(ctx context.Context, emailOrPhone, otp string) error {
	query := url.Values{"email_or_phone": {emailOrPhone}, "otp": {otp}}
	if err := c.do(ctx, http.MethodPost, deactivateAccountPath, query, nil, nil); err != nil {
		return fmt.Errorf("[Client DeactivateAccount] %w", err)
	}
	return nil
}

func (c *Client) DeleteAccount(ctx context.Context, email, otp string) error {
	query := url.Values{"email": {email}, "otp": {otp}}
	if err := c.do(ctx, http.MethodDelete, deleteAccountPath, query, nil, nil); err != nil {
		return fmt.Errorf("[Client DeleteAccount] %w", err)
	}
	return nil
}

func (c *Client) authenticate(ctx context.Context, op, path string, query url.Values, body any) (authmodel.AuthResponse, error) {
	var resp authmodel.AuthResponse
	if err := c.do(ctx, http.MethodPost, path, query, body, &resp); err != nil {
		return authmodel.AuthResponse{}, fmt.Errorf("[Client %s] %w", op, loginError(err))
	}
	if err := authmodel.Validate(resp); err != nil {
		return authmodel.AuthResponse{}, fmt.Errorf("[Client %s] %w", op, err)
	}
	return resp, nil
}

// loginError tags API failures with the sentinel a caller can branch on
func loginError(err error) error {
	var apiErr *authmodel.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.MFARequired:
		return fmt.Errorf("%w: %w", errors.ErrMFARequired, apiErr)
	case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, apiErr)
	default:
		return apiErr
	}
}
