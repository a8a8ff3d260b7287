package authmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-booklet-session/authmodel"
	autherrors "github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTokenResponse_OptionalFields(t *testing.T) {
	var resp authmodel.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access_token":"AT2"}`), &resp))
	require.NoError(t, authmodel.Validate(resp))
	require.Equal(t, "AT2", resp.AccessToken)
	require.Zero(t, resp.ExpiresIn)
	require.Nil(t, resp.RefreshToken)

	require.NoError(t, json.Unmarshal([]byte(`{"access_token":"AT3","expires_in":900,"refresh_token":"RT3"}`), &resp))
	require.Equal(t, 900, resp.ExpiresIn)
	require.Equal(t, "RT3", *resp.RefreshToken)
}

func TestValidate(t *testing.T) {
	err := authmodel.Validate(authmodel.TokenResponse{})
	require.ErrorIs(t, err, autherrors.ErrInvalidResponse)

	err = authmodel.Validate(authmodel.AuthResponse{Tokens: authmodel.TokenOut{AccessToken: "AT1"}})
	require.ErrorIs(t, err, autherrors.ErrInvalidResponse)

	require.NoError(t, authmodel.Validate(authmodel.ActivateRequest{Email: "jane@example.com", OTP: "123456"}))
	require.Error(t, authmodel.Validate(authmodel.ActivateRequest{Email: "jane", OTP: "123456"}))
}

func TestErrorResponse_IsMFARequired(t *testing.T) {
	require.True(t, authmodel.ErrorResponse{MFARequired: true}.IsMFARequired())
	require.True(t, authmodel.ErrorResponse{Detail: "MFA required"}.IsMFARequired())
	require.True(t, authmodel.ErrorResponse{Message: "mfa-required"}.IsMFARequired())
	require.False(t, authmodel.ErrorResponse{Detail: "Invalid credentials"}.IsMFARequired())
}

func TestAPIError(t *testing.T) {
	require.Equal(t, "auth service returned status 401", (&authmodel.APIError{StatusCode: 401}).Error())
	require.Equal(t, "auth service returned status 400: Invalid OTP", (&authmodel.APIError{StatusCode: 400, Detail: "Invalid OTP"}).Error())
}

func TestOTPPurpose(t *testing.T) {
	require.True(t, authmodel.PurposeDeactivateAccount.IsValid())
	require.False(t, authmodel.OTPPurpose("nonsense").IsValid())
}
