// Package mailer sends transactional emails over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Mailer handles sending emails
type Mailer struct {
	config Config
}

// New creates a new Mailer instance
func New(cfg Config) *Mailer {
	return &Mailer{config: cfg}
}

// SendOTP sends an email verification code
func (m *Mailer) SendOTP(toEmail, name, code string, expiryMinutes int) error {
	body, err := renderCodeTemplate(codeEmail{
		Heading:  "Verify your email",
		Name:     name,
		Code:     code,
		Expiry:   expiryMinutes,
		Footnote: "If you didn't create a NextBench account, you can safely ignore this email.",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return m.send(toEmail, "NextBench - Verify your email address", body)
}

// SendPasswordReset sends a password reset code
func (m *Mailer) SendPasswordReset(toEmail, name, code string, expiryMinutes int) error {
	body, err := renderCodeTemplate(codeEmail{
		Heading:  "Reset your password",
		Name:     name,
		Code:     code,
		Expiry:   expiryMinutes,
		Footnote: "If you didn't request a password reset, ignore this email and your password will remain unchanged.",
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return m.send(toEmail, "NextBench - Reset your password", body)
}

// send delivers an email via SMTP
func (m *Mailer) send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"utf-8\"",
	}

	var msg bytes.Buffer
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, msg.Bytes()); err != nil {
		log.Printf("❌ Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}

type codeEmail struct {
	Heading  string
	Name     string
	Code     string
	Expiry   int
	Footnote string
}

var codeTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f6fb;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;">
    <div style="max-width:500px;margin:40px auto;background:#ffffff;border-radius:12px;overflow:hidden;border:1px solid #e2e8f0;">
        <div style="background:linear-gradient(135deg,#0ea5e9 0%,#6366f1 100%);padding:28px;text-align:center;">
            <h1 style="color:#fff;margin:0;font-size:26px;font-weight:700;">🎓 NextBench</h1>
            <p style="color:rgba(255,255,255,0.9);margin:8px 0 0;font-size:14px;">{{.Heading}}</p>
        </div>
        <div style="padding:32px;">
            <p style="color:#1e293b;font-size:16px;line-height:1.6;margin:0 0 20px;">
                Hi <strong>{{.Name}}</strong>,
            </p>
            <p style="color:#475569;font-size:14px;line-height:1.6;margin:0 0 20px;">
                Your code is:
            </p>
            <div style="background:#eff6ff;border:2px dashed #93c5fd;border-radius:10px;padding:20px;text-align:center;margin:0 0 20px;">
                <span style="font-size:34px;font-weight:800;letter-spacing:8px;color:#2563eb;font-family:'Courier New',monospace;">{{.Code}}</span>
            </div>
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0 0 8px;">
                This code expires in <strong>{{.Expiry}} minutes</strong>.
            </p>
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0;">{{.Footnote}}</p>
        </div>
        <div style="padding:16px 32px;border-top:1px solid #e2e8f0;text-align:center;">
            <p style="color:#94a3b8;font-size:12px;margin:0;">© 2026 NextBench. All rights reserved.</p>
        </div>
    </div>
</body>
</html>`))

func renderCodeTemplate(data codeEmail) (string, error) {
	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
