package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleStaff         Role = "STAFF"
	RoleBusinessOwner Role = "BUSINESS_OWNER"
	RoleAdmin         Role = "ADMIN"
)

// ValidRole reports whether r is a known role value.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleBusinessOwner, RoleAdmin:
		return true
	}
	return false
}

// User is the identity record. An account starts unverified and becomes
// usable for protected operations only after OTP confirmation.
type User struct {
	ID             string
	Name           string
	Email          *string
	Phone          *string
	PasswordHash   string
	Role           Role
	Suspended      bool
	SuspendedUntil *time.Time
	OTPHash        *string
	OTPExpiresAt   *time.Time
	OTPVerified    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsSuspended reports whether the suspension is in effect at now. A
// suspension with an expiry lapses on its own once the expiry passes.
func (u *User) IsSuspended(now time.Time) bool {
	if !u.Suspended {
		return false
	}
	if u.SuspendedUntil != nil && now.After(*u.SuspendedUntil) {
		return false
	}
	return true
}

// HasPendingOTP reports whether an unexpired verification code is stored.
func (u *User) HasPendingOTP(now time.Time) bool {
	return u.OTPHash != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}
