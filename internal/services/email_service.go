package services

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
)

// EmailSender delivers transactional mail. Handlers depend on the interface
// so tests can substitute the relay.
type EmailSender interface {
	Send(to, subject, body string) error
}

// EmailService sends plain-text mail through an SMTP relay.
type EmailService struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewEmailService creates a new EmailService.
func NewEmailService(host, port, username, password, from string) *EmailService {
	if from == "" {
		from = username
	}
	return &EmailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a single message. The call blocks until the relay accepts
// or rejects it; callers decide how a failure maps onto their request.
func (s *EmailService) Send(to, subject, body string) error {
	if s.host == "" || s.username == "" {
		log.Println("[Email] SMTP relay not configured")
		return fmt.Errorf("smtp relay not configured")
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	addr := net.JoinHostPort(s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("[Email] Failed to send to %s: %v", to, err)
		return err
	}

	return nil
}
