package notification

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// Mailer delivers password reset codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

const (
	resetSubject  = "Password Reset Request"
	resetBodyText = "Your temporary password is: %s"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type EmailService struct {
	config   EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(config EmailConfig) *EmailService {
	if config.From == "" {
		config.From = config.User
	}
	return &EmailService{config: config, sendMail: smtp.SendMail}
}

// SendOTP mails the reset code as plain text. smtp.SendMail upgrades the
// connection with STARTTLS when the relay offers it.
func (s *EmailService) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sendEmail(to, resetSubject, fmt.Sprintf(resetBodyText, code))
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if err := s.sendMail(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
