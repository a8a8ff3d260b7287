package authmodel

// TokenResponse is the body returned by the refresh endpoint.
type TokenResponse struct {
	// AccessToken is the new short-lived bearer credential.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token" validate:"required"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Optional: the auth service currently omits it; the JWT exp claim is used instead.
	ExpiresIn int `json:"expires_in,omitempty" validate:"gte=0"`

	// RefreshToken is present only when the backend rotates the refresh token.
	// When absent the prior refresh token stays valid.
	RefreshToken *string `json:"refresh_token,omitempty"`

	TokenType string `json:"token_type,omitempty"`
}

// TokenOut is the token block nested in every login style response.
type TokenOut struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty" validate:"gte=0"`
}

// AuthResponse is returned by password login, OTP login, activation and account recovery.
type AuthResponse struct {
	ID          int      `json:"id"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	Roles       string   `json:"roles"`
	IsActive    bool     `json:"is_active"`
	Tokens      TokenOut `json:"tokens" validate:"required"`
}

// MessageResponse is the body of endpoints that only acknowledge, such as send-otp.
type MessageResponse struct {
	Message string `json:"message"`
}
