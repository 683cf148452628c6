package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	FromAddress  string
	FromName     string
	AlertAddress string
}

// SMTPEmailService delivers security notifications over SMTP. Accounts carry
// no email address, so login alerts go to the configured ops mailbox.
type SMTPEmailService struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPEmailService(config SMTPConfig) *SMTPEmailService {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPEmailService{
		config: config,
		dialer: dialer,
	}
}

// SendLoginAlert notifies the ops mailbox about a new session. Callers fire
// this off the request path; a delivery failure never fails the login.
func (s *SMTPEmailService) SendLoginAlert(username, ipAddress, userAgent string, at time.Time) error {
	subject := fmt.Sprintf("New login for %s", username)
	when := at.UTC().Format(time.RFC1123)

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>New Login</h2>
			<p>A new session was started for <strong>%s</strong>.</p>
			<ul>
				<li>Time: %s</li>
				<li>IP address: %s</li>
				<li>Client: %s</li>
			</ul>
			<p>If this login is unexpected, revoke the session and rotate the account password.</p>
		</body>
		</html>
	`, username, when, ipAddress, userAgent)

	plainBody := fmt.Sprintf(`
New Login

A new session was started for %s.

Time: %s
IP address: %s
Client: %s

If this login is unexpected, revoke the session and rotate the account password.
	`, username, when, ipAddress, userAgent)

	return s.sendEmail(s.config.AlertAddress, subject, htmlBody, plainBody)
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
