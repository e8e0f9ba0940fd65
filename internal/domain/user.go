package domain

import "time"

// User is the sole persistent entity. Token fields are pointers because
// they are present only while a confirmation or reset is pending.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	EmailConfirmed bool

	// ConfirmEmailToken is set at signup and on each resend, cleared
	// when the email is confirmed.
	ConfirmEmailToken *string

	// ResetPasswordToken and ResetPasswordExpires are set and cleared
	// together — never one without the other.
	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
