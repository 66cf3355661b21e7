package dto

import "time"

// SignupInitiateRequest payload for starting signup.
type SignupInitiateRequest struct {
	Name     string `json:"name"`
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// SignupVerifyRequest payload for confirming the one-time code.
type SignupVerifyRequest struct {
	UserID string `json:"user_id"`
	OTP    string `json:"otp"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// RenewRequest payload for access-token renewal.
type RenewRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest payload for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	AllDevices   bool   `json:"all_devices,omitempty"`
}

// PasswordResetRequest payload for requesting a reset token.
type PasswordResetRequest struct {
	Identity string `json:"identity"`
}

// PasswordResetConsumeRequest payload for redeeming a reset token.
type PasswordResetConsumeRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SuspendRequest payload for admin suspension.
type SuspendRequest struct {
	Until *time.Time `json:"until,omitempty"`
}

// TokenPairResponse carries an access/refresh pair.
type TokenPairResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	RefreshToken    string    `json:"refresh_token"`
}

// UserResponse is the client-facing identity record.
type UserResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role"`
	Verified bool    `json:"verified"`
}

// SessionResponse describes one active refresh token.
type SessionResponse struct {
	JTI       string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
