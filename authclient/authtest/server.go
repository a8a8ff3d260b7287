// Package authtest runs an in-process stand-in for the Career Booklet auth service.
package authtest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           int
	Email        string
	PhoneNumber  string
	Roles        string
	Active       bool
	MFA          bool
	passwordHash []byte
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	secret        []byte
	nowFunc       func() time.Time
	accessTTL     time.Duration
	sendExpiresIn bool
	rotate        bool
	rejectRefresh bool
	nextID        int
	otpSeq        int
	users         map[string]*User
	otps          map[string]string
	refreshTokens map[string]int
	refreshCalls  int
	refreshBodies []authmodel.RefreshTokenRequest
	refreshAuth   []string
	requestIDs    []string
}

type Option func(*Server)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

// WithAccessTTL sets the lifetime written into the exp claim of minted access tokens
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithExpiresIn makes token responses carry expires_in. By default they carry only the token, like the real refresh endpoint.
func WithExpiresIn() Option {
	return func(s *Server) {
		s.sendExpiresIn = true
	}
}

// WithRotation issues a new refresh token on every refresh and revokes the old one
func WithRotation() Option {
	return func(s *Server) {
		s.rotate = true
	}
}

// NewServer starts the fake service. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		secret:        []byte(uuid.NewString()),
		nowFunc:       time.Now,
		accessTTL:     time.Hour,
		users:         make(map[string]*User),
		otps:          make(map[string]string),
		refreshTokens: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.recordRequestID)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/refresh-token", s.handleRefresh)
		r.Post("/login-password", s.handleLoginPassword)
		r.Post("/login-otp", s.handleLoginOTP)
		r.Post("/send-otp", s.handleSendOTP)
		r.Post("/recover-account", s.handleRecover)
		r.Post("/deactivate-account", s.handleDeactivate)
		r.Delete("/delete-account", s.handleDelete)
	})
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/activate", s.handleActivate)
		r.Get("/me", s.handleMe)
	})
	return r
}

// AddUser registers an account. The password is stored as a bcrypt hash.
func (s *Server) AddUser(email, phone, password string, active bool) *User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := &User{
		ID:           s.nextID,
		Email:        email,
		PhoneNumber:  phone,
		Roles:        "user",
		Active:       active,
		passwordHash: hash,
	}
	s.users[email] = u
	if phone != "" {
		s.users[phone] = u
	}
	return u
}

// RequireMFA makes password login for the account answer with the MFA signal
func (s *Server) RequireMFA(emailOrPhone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[emailOrPhone]; ok {
		u.MFA = true
	}
}

func (s *Server) User(emailOrPhone string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailOrPhone]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// OTP returns the last code sent to emailOrPhone for purpose
func (s *Server) OTP(emailOrPhone string, purpose authmodel.OTPPurpose) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[otpKey(emailOrPhone, purpose)]
}

// IssueRefreshToken mints a refresh token for a user without a login round trip
func (s *Server) IssueRefreshToken(u *User) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueRefreshLocked(u.ID)
}

// RejectRefresh makes every refresh answer 401
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// RefreshRequests returns the decoded bodies and Authorization headers of all refresh calls
func (s *Server) RefreshRequests() ([]authmodel.RefreshTokenRequest, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]authmodel.RefreshTokenRequest(nil), s.refreshBodies...), append([]string(nil), s.refreshAuth...)
}

func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) recordRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) mintAccessLocked(userID int) (string, int) {
	now := s.nowFunc()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	expiresIn := 0
	if s.sendExpiresIn {
		expiresIn = int(s.accessTTL / time.Second)
	}
	return signed, expiresIn
}

func (s *Server) issueRefreshLocked(userID int) string {
	token := uuid.NewString()
	s.refreshTokens[token] = userID
	return token
}

func (s *Server) revokeUserLocked(userID int) {
	for token, id := range s.refreshTokens {
		if id == userID {
			delete(s.refreshTokens, token)
		}
	}
}

func (s *Server) authResponseLocked(u *User) authmodel.AuthResponse {
	access, expiresIn := s.mintAccessLocked(u.ID)
	return authmodel.AuthResponse{
		ID:          u.ID,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Roles:       u.Roles,
		IsActive:    u.Active,
		Tokens: authmodel.TokenOut{
			AccessToken:  access,
			RefreshToken: s.issueRefreshLocked(u.ID),
			TokenType:    "bearer",
			ExpiresIn:    expiresIn,
		},
	}
}

// consumeOTPLocked checks and spends a one time code
func (s *Server) consumeOTPLocked(emailOrPhone string, purpose authmodel.OTPPurpose, otp string) bool {
	key := otpKey(emailOrPhone, purpose)
	want, ok := s.otps[key]
	if !ok || otp == "" || want != otp {
		return false
	}
	delete(s.otps, key)
	return true
}

func otpKey(emailOrPhone string, purpose authmodel.OTPPurpose) string {
	return string(purpose) + "|" + emailOrPhone
}
