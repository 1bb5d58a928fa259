package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP connection details.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// statusMessages maps each order status to the sentence included in the
// notification email body.
var statusMessages = map[string]string{
	"pending":    "Your order has been received and is pending confirmation.",
	"processing": "Your order is being processed.",
	"shipped":    "Your order has been shipped!",
	"delivered":  "Your order has been delivered!",
}

// Mailer delivers order status emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer for the given SMTP configuration.
func New(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Subject composes the subject line of a status-update email.
func Subject(orderID string) string {
	return fmt.Sprintf("Order %s - Status Update", orderID)
}

// Body composes the HTML body of a status-update email.
func Body(orderID, status string) string {
	return fmt.Sprintf(`<h2>Order Status Update</h2>
<p>Your order <strong>%s</strong> status has been updated to: <strong>%s</strong></p>
<p>%s</p>
<p>Thank you for your business!</p>`, orderID, status, statusMessages[status])
}

// SendStatusUpdate delivers the templated status email to the given address.
func (m *Mailer) SendStatusUpdate(to, orderID, status string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", Subject(orderID))
	msg.SetBody("text/html", Body(orderID, status))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send status email to %s: %w", to, err)
	}
	return nil
}
