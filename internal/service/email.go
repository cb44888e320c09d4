package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client       *resend.Client
	fromEmail    string
	supportEmail string
	audienceID   string
	isDev        bool
	appURL       string
	appName      string
}

func NewEmailService(apiKey, fromEmail, supportEmail, audienceID, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:       client,
		fromEmail:    fromEmail,
		supportEmail: supportEmail,
		audienceID:   audienceID,
		isDev:        isDev,
		appURL:       appURL,
		appName:      appName,
	}
}

// Enabled reports whether emails actually leave the process.
func (s *EmailService) Enabled() bool {
	return s.client != nil
}

// SendFeedback forwards a feedback submission to the support inbox.
func (s *EmailService) SendFeedback(ctx context.Context, score float64, comment, fromEmail string) error {
	subject, body := feedbackEmailTemplate(score, comment, fromEmail, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "feedback", "to", s.supportEmail, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{s.supportEmail},
		Subject: subject,
		Text:    body,
	}
	if fromEmail != "" {
		params.ReplyTo = fromEmail
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", "feedback", "to", s.supportEmail)
	}
	return err
}

// SendWelcomeEmail goes out once, when a profile is first created.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	analyzeURL := fmt.Sprintf("%s/app/analyze", s.appURL)
	subject, body := welcomeEmailTemplate(name, analyzeURL, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "welcome", "to", email, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", "welcome", "to", email)
	}
	return err
}

func (s *EmailService) SubscribeNewsletter(email string) error {
	if s.isDev {
		slog.Info("newsletter subscription (dev mode)", "email", email)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	if s.audienceID == "" {
		slog.Warn("newsletter subscription requested but no audience configured", "email", email)
		return nil
	}

	params := &resend.CreateContactRequest{
		Email:      email,
		AudienceId: s.audienceID,
	}

	_, err := s.client.Contacts.Create(params)
	if err != nil {
		slog.Warn("newsletter subscription failed", "error", err, "email", email)
		// Ignore errors to prevent email enumeration
		// This includes duplicates, invalid emails, or API issues
		return nil
	}

	slog.Info("newsletter subscription successful", "email", email)
	return nil
}
