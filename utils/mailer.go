package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP
type Mailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

func NewMailer(host string, port int, username, password, fromName, fromEmail string) *Mailer {
	return &Mailer{
		Host:      host,
		Port:      port,
		Username:  username,
		Password:  password,
		FromName:  fromName,
		FromEmail: fromEmail,
	}
}

// Embedded email templates
var emailTemplates = map[string]string{
	"appointment_reminder": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .detail { font-size: 18px; font-weight: bold; color: #3498db; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Upcoming Appointment</h2>
    </div>

    <div class="content">
        <p>Hello {{.Name}},</p>
        <p>This is a reminder for your appointment at {{.Dealership}}:</p>

        <div class="detail">{{.Title}} — {{.When}}</div>

        <p>If you need to reschedule, just reply to this email.</p>
    </div>

    <div class="footer">
        <p>© {{.Year}} {{.Dealership}}. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// Send delivers a plain HTML email and returns the generated message id.
func (m *Mailer) Send(to, subject, htmlBody string) (string, error) {
	messageID := uuid.New().String()

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.FromEmail, m.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@dealerflow>", messageID))
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return messageID, nil
}

// SendTemplate renders one of the embedded templates and sends it.
func (m *Mailer) SendTemplate(to, subject, templateName string, data map[string]interface{}) (string, error) {
	tmplSrc, ok := emailTemplates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplSrc)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	data["Subject"] = subject
	data["Year"] = time.Now().Year()

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return m.Send(to, subject, body.String())
}
