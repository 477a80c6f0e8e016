// Package mail delivers transactional email over SMTP.
package mail

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"labfry/config"
	"labfry/internal/domain/service"
	"labfry/internal/errors"
)

type smtpMailer struct {
	client      *mail.Client
	fromEmail   string
	fromName    string
	frontendURL string
}

// NewSMTPMailer builds a service.Mailer backed by the configured SMTP relay.
func NewSMTPMailer(cfg *config.Config) (service.Mailer, error) {
	smtp := cfg.SMTP
	if smtp == nil || smtp.Host == "" {
		return nil, errors.New("smtp config is required")
	}

	opts := []mail.Option{
		mail.WithPort(smtp.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(smtp.Username),
		mail.WithPassword(smtp.Password),
	}
	// Port 465 is implicit TLS, everything else negotiates STARTTLS.
	if smtp.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(smtp.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &smtpMailer{
		client:      client,
		fromEmail:   smtp.FromEmail,
		fromName:    smtp.FromName,
		frontendURL: cfg.Frontend.URL,
	}, nil
}

func (m *smtpMailer) SendVerificationEmail(ctx context.Context, email, firstName, token, code string) error {
	verifyURL := fmt.Sprintf("%s/verify?token=%s&type=email", m.frontendURL, token)

	var action, footer string
	if code != "" {
		action = codeBlock("Your Verification Code", code)
		footer = "This verification code will expire in 15 minutes."
	} else {
		action = linkButton(verifyURL, "Verify Email Address")
		footer = "This verification link will expire in 24 hours."
	}

	body := layout(
		"Welcome to Labfry!",
		"Please verify your email address to complete your registration",
		firstName,
		"Thank you for signing up with Labfry! To complete your registration and access all features, please verify your email address below.",
		action,
		footer+" If you didn't create an account with Labfry, please ignore this email.",
	)

	return m.send(ctx, email, "Verify Your Email Address - Labfry", body)
}

func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, email, firstName, token, code string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.frontendURL, token)

	var action, footer string
	if code != "" {
		action = codeBlock("Your Reset Code", code)
		footer = "This reset code will expire in 15 minutes."
	} else {
		action = linkButton(resetURL, "Reset Password")
		footer = "This password reset link will expire in 1 hour."
	}

	body := layout(
		"Password Reset Request",
		"We received a request to reset your password",
		firstName,
		"We received a request to reset the password for your Labfry account. If you made this request, use the option below to create a new password.",
		action,
		footer+" If you didn't request a password reset, please ignore this email. Your password will remain unchanged.",
	)

	return m.send(ctx, email, "Reset Your Password - Labfry", body)
}

func (m *smtpMailer) SendWelcomeEmail(ctx context.Context, email, firstName string) error {
	loginURL := fmt.Sprintf("%s/login", m.frontendURL)

	body := layout(
		"Welcome to Labfry!",
		"Your account has been successfully verified",
		firstName,
		"Congratulations! Your email has been verified and your Labfry account is now active. You can now access all features and start exploring what we have to offer.",
		linkButton(loginURL, "Login to Your Account"),
		"Thank you for choosing Labfry Technology!",
	)

	return m.send(ctx, email, "Welcome to Labfry - Your Account is Ready!", body)
}

// HealthCheck dials the SMTP relay without sending anything.
func (m *smtpMailer) HealthCheck(ctx context.Context) error {
	if err := m.client.DialWithContext(ctx); err != nil {
		return errors.Wrap(err, "smtp connection failed")
	}

	return errors.Wrap(m.client.Close(), "smtp close failed")
}

func (m *smtpMailer) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromEmail); err != nil {
		return errors.Wrap(err, "invalid from address")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to send %q to %s", subject, to)
	}

	return nil
}

func layout(heading, subheading, firstName, intro, action, footer string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: #EE3638; font-size: 28px; margin-bottom: 10px;">%s</h1>
    <p style="color: #666666; font-size: 16px;">%s</p>
  </div>
  <div style="background-color: #f9f9f9; padding: 30px; border-radius: 10px; margin-bottom: 30px;">
    <h2 style="color: #111111; font-size: 20px; margin-bottom: 15px;">Hi %s,</h2>
    <p style="color: #666666; font-size: 16px; line-height: 1.6; margin-bottom: 25px;">%s</p>
    %s
  </div>
  <div style="text-align: center; color: #999999; font-size: 12px;">
    <p>%s</p>
    <p>&copy; 2024 Labfry Technology. All rights reserved.</p>
  </div>
</div>`, heading, subheading, firstName, intro, action, footer)
}

func linkButton(url, label string) string {
	return fmt.Sprintf(`<div style="text-align: center; margin: 30px 0;">
  <a href="%s" style="background-color: #EE3638; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-size: 16px; font-weight: bold; display: inline-block;">%s</a>
</div>`, url, label)
}

func codeBlock(title, code string) string {
	return fmt.Sprintf(`<div style="text-align: center; margin: 30px 0;">
  <div style="background-color: #f8f9fa; border: 2px solid #EE3638; border-radius: 8px; padding: 20px; display: inline-block;">
    <h3 style="color: #EE3638; margin: 0 0 10px 0; font-size: 24px;">%s</h3>
    <div style="font-size: 32px; font-weight: bold; color: #111111; letter-spacing: 5px; font-family: 'Courier New', monospace;">%s</div>
    <p style="color: #666666; font-size: 14px; margin: 10px 0 0 0;">This code expires in 15 minutes</p>
  </div>
</div>`, title, code)
}
