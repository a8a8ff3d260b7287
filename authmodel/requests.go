package authmodel

// RefreshTokenRequest is sent to the refresh endpoint. It carries only the refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginRequest is the password login body.
type LoginRequest struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// ActivateRequest activates a newly registered account with the OTP sent for "activation".
type ActivateRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

// OTPPurpose tells the auth service why an OTP is being sent.
type OTPPurpose string

const (
	PurposeLogin             OTPPurpose = "login"
	PurposeMultiFactorLogin  OTPPurpose = "multi_factor_login"
	PurposeActivation        OTPPurpose = "activation"
	PurposeResetPassword     OTPPurpose = "reset_password"
	PurposeDeleteAccount     OTPPurpose = "delete_account"
	PurposeDeactivateAccount OTPPurpose = "deactivate_account"
	PurposeRecoverAccount    OTPPurpose = "recover_account"
	PurposeUpdatePhoneNumber OTPPurpose = "update_phone_number"
)

var otpPurposes = map[OTPPurpose]struct{}{
	PurposeLogin:             {},
	PurposeMultiFactorLogin:  {},
	PurposeActivation:        {},
	PurposeResetPassword:     {},
	PurposeDeleteAccount:     {},
	PurposeDeactivateAccount: {},
	PurposeRecoverAccount:    {},
	PurposeUpdatePhoneNumber: {},
}

func (p OTPPurpose) IsValid() bool {
	_, ok := otpPurposes[p]
	return ok
}
