package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"strings"
)

// EmailService sends mail over SMTP. Callers treat delivery as
// best-effort; a send failure is logged by the caller, never propagated.
type EmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailService reads SMTP_* configuration from the environment.
func NewEmailService() *EmailService {
	return &EmailService{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
		from: os.Getenv("SMTP_FROM"),
	}
}

// SendWithAttachment sends an HTML email with binary attachments.
// Attachments map filename to content.
func (es *EmailService) SendWithAttachment(recipients []string, subject, body string, attachments map[string][]byte) error {
	if es.host == "" {
		return fmt.Errorf("SMTP_HOST not configured")
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", es.from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	part, err := mw.CreatePart(htmlHeader)
	if err != nil {
		return fmt.Errorf("create body part: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	for name, content := range attachments {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", contentTypeFor(name))
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
		part, err := mw.CreatePart(attHeader)
		if err != nil {
			return fmt.Errorf("create attachment part %s: %w", name, err)
		}
		encoded := base64.StdEncoding.EncodeToString(content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return fmt.Errorf("write attachment %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize message: %w", err)
	}

	addr := es.host + ":" + es.port
	var auth smtp.Auth
	if es.user != "" {
		auth = smtp.PlainAuth("", es.user, es.pass, es.host)
	}
	if err := smtp.SendMail(addr, auth, es.from, recipients, buf.Bytes()); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
