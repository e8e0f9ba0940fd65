package email

import "fmt"

// Template names, exposed for metrics labels and tests.
const (
	TemplateConfirmEmail    = "confirm_email"
	TemplateResetPassword   = "reset_password"
	TemplatePasswordChanged = "password_changed"
)

// ConfirmEmail builds the confirmation message. The link embeds the raw
// confirmation token.
func ConfirmEmail(link string) (subject, body string) {
	subject = "Confirm your email"
	body = fmt.Sprintf(
		`<p>Click the link below to confirm your email address:</p><p><a href="%s">%s</a></p>`,
		link, link,
	)
	return subject, body
}

// ResetPassword builds the forgot-password message. The link embeds the
// raw reset token.
func ResetPassword(link string) (subject, body string) {
	subject = "Reset your password"
	body = fmt.Sprintf(
		`<p>Click the link below to choose a new password:</p><p><a href="%s">%s</a></p>`,
		link, link,
	)
	return subject, body
}

// PasswordChanged builds the notice sent after a successful reset.
func PasswordChanged() (subject, body string) {
	subject = "Your password was changed"
	body = `<p>Your password was just changed. If this wasn't you, reset it immediately.</p>`
	return subject, body
}
