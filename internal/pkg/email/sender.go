// internal/pkg/email/sender.go
package email

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/your-org/breakroom-backend/internal/config"
)

// Attachment is a file carried with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message represents an outgoing email
type Message struct {
	To          []string
	Subject     string
	HTMLContent string
	Attachments []Attachment
}

// Sender delivers messages over SMTP
type Sender struct {
	config *config.Config
}

// NewSender creates a new SMTP sender
func NewSender(cfg *config.Config) *Sender {
	return &Sender{config: cfg}
}

// Send delivers one message using the configured SMTP server
func (s *Sender) Send(msg *Message) error {
	cfg := s.config.Email
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host or username")
	}

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)

	var from string
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	} else {
		from = cfg.FromEmail
	}

	body := s.buildMessage(from, msg)
	serverAddr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	if cfg.SMTPUseTLS {
		return s.sendWithTLS(serverAddr, auth, cfg.FromEmail, msg.To, body)
	}
	return smtp.SendMail(serverAddr, auth, cfg.FromEmail, msg.To, body)
}

// buildMessage assembles the MIME payload. Messages without attachments go
// out as plain HTML; attachments switch the body to multipart/mixed.
func (s *Sender) buildMessage(from string, msg *Message) []byte {
	var buf bytes.Buffer

	write := func(key, value string) {
		buf.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	write("From", from)
	write("To", strings.Join(msg.To, ", "))
	write("Subject", msg.Subject)
	write("MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		write("Content-Type", "text/html; charset=\"utf-8\"")
		buf.WriteString("\r\n")
		buf.WriteString(msg.HTMLContent)
		return buf.Bytes()
	}

	boundary := "breakroom-mail-boundary"
	write("Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	buf.WriteString(msg.HTMLContent)
	buf.WriteString("\r\n")

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename))

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		// RFC 2045 line length limit
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

// sendWithTLS sends over an explicit TLS connection
func (s *Sender) sendWithTLS(serverAddr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.config.Email.SMTPHost,
	}

	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Email.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", addr, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send DATA command: %w", err)
	}
	defer writer.Close()

	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("failed to write email content: %w", err)
	}
	return nil
}
