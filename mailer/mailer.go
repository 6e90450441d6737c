// Package mailer delivers flow notifications over SMTP. It implements
// activation.Notifier, so the flows stay unaware of how magic links and
// activation codes reach the user.
package mailer

import (
	"context"
	"fmt"

	activation "github.com/goliatone/go-activation"
	"gopkg.in/gomail.v2"
)

// Mailer sends activation emails through an SMTP dialer.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

var _ activation.Notifier = (*Mailer)(nil)

// New creates a Mailer for the given SMTP endpoint.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Notify implements activation.Notifier, routing each notification type to
// its template.
func (m *Mailer) Notify(_ context.Context, n activation.Notification) error {
	switch n.Type {
	case activation.NotificationMagicLink:
		return m.sendMagicLink(n.Email, n.MagicLink)
	case activation.NotificationActivationCode:
		return m.sendActivationCode(n.Email, n.Code)
	default:
		return fmt.Errorf("unsupported notification type %q", n.Type)
	}
}

func (m *Mailer) sendMagicLink(email, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Activate your account")

	body := fmt.Sprintf(`
		<h2>Almost there!</h2>
		<p>Follow the link below to activate your account:</p>
		<p><a href="%s">%s</a></p>
		<p>The link expires shortly. If you did not register, you can ignore this email.</p>
	`, link, link)

	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send magic link email: %w", err)
	}

	return nil
}

func (m *Mailer) sendActivationCode(email, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your login code")

	body := fmt.Sprintf(`
		<h3>Login verification</h3>
		<p>Enter the following code to finish logging in: <strong>%s</strong></p>
		<p>The code expires shortly. If you did not try to log in, you can ignore this email.</p>
	`, code)

	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send activation code email: %w", err)
	}

	return nil
}
