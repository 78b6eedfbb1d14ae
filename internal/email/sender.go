// Package email delivers transactional mail through the Resend API.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendSender sends password reset mail via Resend.
type ResendSender struct {
	client    *resend.Client
	fromEmail string
	publicURL string
}

// NewResendSender constructs a sender bound to a verified from-address.
func NewResendSender(apiKey, fromEmail, publicURL string) *ResendSender {
	return &ResendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		publicURL: publicURL,
	}
}

// SendPasswordReset mails the reset link embedding the plaintext token.
func (s *ResendSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.publicURL, token)
	body := fmt.Sprintf(
		"<p>We received a request to reset your MoringaDesk password.</p>"+
			"<p><a href=%q>Choose a new password</a></p>"+
			"<p>If you did not request this, you can ignore this message.</p>",
		resetLink,
	)

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: "Reset your MoringaDesk password",
		Html:    body,
	})
	return err
}

// NopSender discards all mail. Used when no email provider is configured.
type NopSender struct{}

// SendPasswordReset is a no-op.
func (NopSender) SendPasswordReset(context.Context, string, string) error {
	return nil
}
