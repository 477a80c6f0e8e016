// Package service defines interfaces for core, stateless domain logic.
package service

import "context"

// Mailer defines the outbound email operations the orchestrator needs.
// Each verification/reset mail carries both the link token and the 6-digit
// code so the recipient can use either proof.
type Mailer interface {
	// SendVerificationEmail sends the email-verification mail with the
	// 24-hour link token and the 15-minute code.
	SendVerificationEmail(ctx context.Context, email, firstName, token, code string) error

	// SendPasswordResetEmail sends the password-reset mail with the
	// 1-hour link token and the 15-minute code.
	SendPasswordResetEmail(ctx context.Context, email, firstName, token, code string) error

	// SendWelcomeEmail sends the post-verification welcome mail.
	// Callers treat failures as best-effort.
	SendWelcomeEmail(ctx context.Context, email, firstName string) error

	// HealthCheck verifies connectivity to the SMTP server.
	HealthCheck(ctx context.Context) error
}
