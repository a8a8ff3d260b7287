package authtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const contentTypeJSON = "application/json"

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authmodel.RefreshTokenRequest
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	s.refreshBodies = append(s.refreshBodies, req)
	s.refreshAuth = append(s.refreshAuth, r.Header.Get("Authorization"))

	if decodeErr != nil || req.RefreshToken == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "refresh_token is required")
		return
	}
	userID, ok := s.refreshTokens[req.RefreshToken]
	if s.rejectRefresh || !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	access, expiresIn := s.mintAccessLocked(userID)
	resp := authmodel.TokenResponse{AccessToken: access, ExpiresIn: expiresIn, TokenType: "bearer"}
	if s.rotate {
		delete(s.refreshTokens, req.RefreshToken)
		resp.RefreshToken = utils.Ptr(s.issueRefreshLocked(userID))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoginPassword(w http.ResponseWriter, r *http.Request) {
	var req authmodel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.EmailOrPhone]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !u.Active {
		writeDetail(w, http.StatusForbidden, "Account is not active")
		return
	}
	if u.MFA {
		writeJSON(w, http.StatusUnauthorized, authmodel.ErrorResponse{Detail: "MFA required", MFARequired: true})
		return
	}
	writeJSON(w, http.StatusOK, s.authResponseLocked(u))
}

func (s *Server) handleLoginOTP(w http.ResponseWriter, r *http.Request) {
	emailOrPhone := r.URL.Query().Get("email_or_phone")
	otp := r.URL.Query().Get("otp")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailOrPhone]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !s.consumeOTPLocked(emailOrPhone, authmodel.PurposeLogin, otp) &&
		!s.consumeOTPLocked(emailOrPhone, authmodel.PurposeMultiFactorLogin, otp) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	writeJSON(w, http.StatusOK, s.authResponseLocked(u))
}

func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	emailOrPhone := r.URL.Query().Get("email_or_phone")
	purpose := authmodel.OTPPurpose(r.URL.Query().Get("purpose"))
	if !purpose.IsValid() {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid purpose")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[emailOrPhone]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	s.otpSeq++
	s.otps[otpKey(emailOrPhone, purpose)] = fmt.Sprintf("%06d", s.otpSeq)
	writeJSON(w, http.StatusOK, authmodel.MessageResponse{Message: "OTP sent"})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req authmodel.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !s.consumeOTPLocked(req.Email, authmodel.PurposeActivation, req.OTP) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	u.Active = true
	writeJSON(w, http.StatusOK, s.authResponseLocked(u))
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	otp := r.URL.Query().Get("otp")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !s.consumeOTPLocked(email, authmodel.PurposeRecoverAccount, otp) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	u.Active = true
	writeJSON(w, http.StatusOK, s.authResponseLocked(u))
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	emailOrPhone := r.URL.Query().Get("email_or_phone")
	otp := r.URL.Query().Get("otp")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[emailOrPhone]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !s.consumeOTPLocked(emailOrPhone, authmodel.PurposeDeactivateAccount, otp) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	u.Active = false
	s.revokeUserLocked(u.ID)
	writeJSON(w, http.StatusOK, authmodel.MessageResponse{Message: "Account deactivated"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	otp := r.URL.Query().Get("otp")

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if !s.consumeOTPLocked(email, authmodel.PurposeDeleteAccount, otp) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	s.revokeUserLocked(u.ID)
	delete(s.users, u.Email)
	if u.PhoneNumber != "" {
		delete(s.users, u.PhoneNumber)
	}
	writeJSON(w, http.StatusOK, authmodel.MessageResponse{Message: "Account deleted"})
}

// handleMe is a protected resource that accepts only a valid bearer access token
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	s.mu.Lock()
	secret, now := s.secret, s.nowFunc
	s.mu.Unlock()

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, _ := strconv.Atoi(claims.Subject)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email})
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, authmodel.ErrorResponse{Detail: detail})
}
