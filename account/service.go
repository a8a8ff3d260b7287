// Package account runs the login and account lifecycle flows against the auth
// service and keeps the session manager in step with their outcome.
package account

import (
	"context"
	"time"

	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuthAPI is the subset of the auth service client the flows need
type AuthAPI interface {
	LoginPassword(ctx context.Context, emailOrPhone, password string) (authmodel.AuthResponse, error)
	LoginOTP(ctx context.Context, emailOrPhone, otp string) (authmodel.AuthResponse, error)
	Activate(ctx context.Context, email, otp string) (authmodel.AuthResponse, error)
	RecoverAccount(ctx context.Context, email, otp string) (authmodel.AuthResponse, error)
	SendOTP(ctx context.Context, emailOrPhone string, purpose authmodel.OTPPurpose) error
	DeactivateAccount(ctx context.Context, emailOrPhone, otp string) error
	DeleteAccount(ctx context.Context, email, otp string) error
}

// Sessions receives the credential of a successful login and is signed out when the account goes away.
type Sessions interface {
	Login(ctx context.Context, accessToken, refreshToken string, expiresIn time.Duration)
	Logout(ctx context.Context)
}

// User is the signed in account as reported by the auth service
type User struct {
	ID          int
	Email       string
	PhoneNumber string
	Roles       string
	IsActive    bool
}

type Service struct {
	api      AuthAPI
	sessions Sessions
	logger   zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(api AuthAPI, sessions Sessions, opts ...ServiceOption) *Service {
	s := &Service{
		api:      api,
		sessions: sessions,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginWithPassword signs in with an email or phone number and password.
// A second factor requirement surfaces as errors.ErrMFARequired; follow up with
// SendOTP(PurposeMultiFactorLogin) and LoginWithOTP.
func (s *Service) LoginWithPassword(ctx context.Context, emailOrPhone, password string) (User, error) {
	resp, err := s.api.LoginPassword(ctx, emailOrPhone, password)
	if err != nil {
		return User{}, errors.Wrapf(err, "[account LoginWithPassword]")
	}
	return s.startSession(ctx, resp), nil
}

func (s *Service) LoginWithOTP(ctx context.Context, emailOrPhone, otp string) (User, error) {
	resp, err := s.api.LoginOTP(ctx, emailOrPhone, otp)
	if err != nil {
		return User{}, errors.Wrapf(err, "[account LoginWithOTP]")
	}
	return s.startSession(ctx, resp), nil
}

// Activate confirms a new account and signs it in
func (s *Service) Activate(ctx context.Context, email, otp string) (User, error) {
	resp, err := s.api.Activate(ctx, email, otp)
	if err != nil {
		return User{}, errors.Wrapf(err, "[account Activate]")
	}
	return s.startSession(ctx, resp), nil
}

// Recover reactivates a deactivated account and signs it in
func (s *Service) Recover(ctx context.Context, email, otp string) (User, error) {
	resp, err := s.api.RecoverAccount(ctx, email, otp)
	if err != nil {
		return User{}, errors.Wrapf(err, "[account Recover]")
	}
	return s.startSession(ctx, resp), nil
}

func (s *Service) SendOTP(ctx context.Context, emailOrPhone string, purpose authmodel.OTPPurpose) error {
	if err := s.api.SendOTP(ctx, emailOrPhone, purpose); err != nil {
		return errors.Wrapf(err, "[account SendOTP]")
	}
	return nil
}

// Deactivate disables the account and ends the local session. The session is
// left untouched when the backend refuses.
func (s *Service) Deactivate(ctx context.Context, emailOrPhone, otp string) error {
	if err := s.api.DeactivateAccount(ctx, emailOrPhone, otp); err != nil {
		return errors.Wrapf(err, "[account Deactivate]")
	}
	s.logger.Info().Msg("[account Deactivate] account deactivated")
	s.sessions.Logout(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, email, otp string) error {
	if err := s.api.DeleteAccount(ctx, email, otp); err != nil {
		return errors.Wrapf(err, "[account Delete]")
	}
	s.logger.Info().Msg("[account Delete] account deleted")
	s.sessions.Logout(ctx)
	return nil
}

func (s *Service) startSession(ctx context.Context, resp authmodel.AuthResponse) User {
	expiresIn := time.Duration(resp.Tokens.ExpiresIn) * time.Second
	s.sessions.Login(ctx, resp.Tokens.AccessToken, resp.Tokens.RefreshToken, expiresIn)
	s.logger.Info().Int("user_id", resp.ID).Msg("[account startSession] session started")
	return User{
		ID:          resp.ID,
		Email:       resp.Email,
		PhoneNumber: resp.PhoneNumber,
		Roles:       resp.Roles,
		IsActive:    resp.IsActive,
	}
}
