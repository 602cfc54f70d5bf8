package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/templui/walletauth/internal/markdown"
)

var emailParser = markdown.NewParser()

type emailContent struct {
	Subject string
	Text    string
	HTML    string
}

const verificationEmailSource = `---
subject: %q
---
Welcome! Please confirm your email address by opening this link:

<%s>

This link expires in **%s** and can only be used once.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team
`

func verificationEmailTemplate(verifyURL, appName string, expiry time.Duration) (emailContent, error) {
	subject := fmt.Sprintf("Verify your email for %s", appName)
	source := fmt.Sprintf(verificationEmailSource, subject, verifyURL, humanDuration(expiry), appName)

	html, meta, err := emailParser.ParseWithFrontmatter([]byte(source))
	if err != nil {
		return emailContent{}, fmt.Errorf("failed to render verification email: %w", err)
	}
	if s, ok := meta["subject"].(string); ok {
		subject = s
	}

	_, body, _ := strings.Cut(source, "---\n")
	_, body, _ = strings.Cut(body, "---\n")

	return emailContent{
		Subject: subject,
		Text:    strings.ReplaceAll(body, "**", ""),
		HTML:    string(html),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	case d >= time.Minute && d%time.Minute == 0:
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return d.String()
	}
}
