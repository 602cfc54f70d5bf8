package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

// EmailSender delivers verification links. Retrying failed deliveries is
// the sender's business; callers treat an error as "not delivered".
type EmailSender interface {
	SendVerification(ctx context.Context, toEmail, verificationLink string) error
}

type EmailConfig struct {
	Provider     string // "resend", "smtp" or "log"
	From         string
	AppName      string
	TokenExpiry  time.Duration
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// NewEmailSender picks the delivery backend. Development falls back to
// logging the link when no provider is configured.
func NewEmailSender(cfg EmailConfig, isDev bool) (EmailSender, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "resend"
	}
	if isDev && provider == "resend" && cfg.ResendAPIKey == "" {
		provider = "log"
	}

	switch provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
		}
		return &ResendSender{client: resend.NewClient(cfg.ResendAPIKey), from: cfg.From, appName: cfg.AppName, expiry: cfg.TokenExpiry}, nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email service not configured (missing SMTP_HOST)")
		}
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return &SMTPSender{dialer: dialer, from: cfg.From, appName: cfg.AppName, expiry: cfg.TokenExpiry}, nil
	case "log":
		return &LogSender{appName: cfg.AppName, expiry: cfg.TokenExpiry}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}
}

type ResendSender struct {
	client  *resend.Client
	from    string
	appName string
	expiry  time.Duration
}

func (s *ResendSender) SendVerification(ctx context.Context, toEmail, verificationLink string) error {
	content, err := verificationEmailTemplate(verificationLink, s.appName, s.expiry)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: content.Subject,
		Text:    content.Text,
		Html:    content.HTML,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", "email_verification", "to", toEmail, "provider", "resend")
	}
	return err
}

type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	appName string
	expiry  time.Duration
}

func (s *SMTPSender) SendVerification(ctx context.Context, toEmail, verificationLink string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := verificationEmailTemplate(verificationLink, s.appName, s.expiry)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", content.Subject)
	m.SetBody("text/plain", content.Text)
	m.AddAlternative("text/html", content.HTML)

	err = s.dialer.DialAndSend(m)
	if err == nil {
		slog.Info("email sent", "type", "email_verification", "to", toEmail, "provider", "smtp")
	}
	return err
}

// LogSender writes the link to the log instead of sending mail.
type LogSender struct {
	appName string
	expiry  time.Duration
}

func (s *LogSender) SendVerification(ctx context.Context, toEmail, verificationLink string) error {
	content, err := verificationEmailTemplate(verificationLink, s.appName, s.expiry)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "email sent (dev mode)", "type", "email_verification", "to", toEmail, "subject", content.Subject, "url", verificationLink)
	return nil
}
