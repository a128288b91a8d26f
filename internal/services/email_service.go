package services

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"spendsense/internal/config"
)

const resetSubject = "SpendSense password reset"

// emailService sends transactional mail over SMTP.
type emailService struct {
	cfg      config.SMTPConfig
	resetTTL time.Duration
	send     func(m *gomail.Message) error
}

// NewEmailService creates an EmailSender from the SMTP settings. resetTTL is
// quoted in the reset email.
func NewEmailService(cfg config.SMTPConfig, resetTTL time.Duration) EmailSender {
	s := &emailService{cfg: cfg, resetTTL: resetTTL}
	s.send = func(m *gomail.Message) error {
		return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password).DialAndSend(m)
	}
	return s
}

// Enabled reports whether SMTP delivery is configured.
func (s *emailService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.Host != ""
}

// SendPasswordReset emails the reset link to the user.
func (s *emailService) SendPasswordReset(to, name, resetURL string) error {
	if !s.Enabled() {
		return fmt.Errorf("email delivery is disabled, set SMTP_ENABLED=true")
	}
	return s.sendEmail(to, resetSubject, resetEmailBody(name, resetURL, s.resetTTL))
}

func (s *emailService) message(to, subject, body string) *gomail.Message {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(from, "SpendSense"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *emailService) sendEmail(to, subject, body string) error {
	if err := s.send(s.message(to, subject, body)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func resetEmailBody(name, resetURL string, ttl time.Duration) string {
	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 10
	}
	link := html.EscapeString(resetURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background: #f5f5f5; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; padding: 30px;">
        <h1 style="color: #2563eb;">SpendSense</h1>
        <p>Hi <strong>%s</strong>,</p>
        <p>We received a request to reset your password. Use the button below to choose a new one:</p>
        <p style="text-align: center;">
            <a href="%s" style="display: inline-block; background: #2563eb; color: #fff; padding: 14px 40px; border-radius: 8px; text-decoration: none;">Reset password</a>
        </p>
        <p>This link expires in <strong>%d minutes</strong>. If you did not ask for a reset, ignore this email.</p>
        <p>If the button does not work, copy this link into your browser:</p>
        <p style="word-break: break-all; font-size: 12px;">%s</p>
    </div>
</body>
</html>
`, html.EscapeString(name), link, minutes, link)
}
