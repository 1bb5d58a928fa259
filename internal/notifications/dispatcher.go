package notifications

import (
	"log"
	"time"

	"gerai/internal/models"
)

// StatusUpdate is the event published to realtime listeners when an order
// moves to a new status.
type StatusUpdate struct {
	OrderID   string             `json:"order_id"`
	UserID    string             `json:"user_id"`
	Status    models.OrderStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// Broadcaster pushes an event to all currently connected realtime listeners.
// No delivery guarantee and no tracking of missed events.
type Broadcaster interface {
	BroadcastJSON(v interface{}) error
}

// Mailer delivers (or queues) a status-update email to a customer.
type Mailer interface {
	SendStatusUpdate(to, orderID, status string) error
}

// Dispatcher fans a status change out to the realtime channel and to email.
// Both deliveries are advisory: the persisted status is the source of truth,
// so every failure here is logged and swallowed, never returned.
type Dispatcher struct {
	broadcaster Broadcaster
	mailer      Mailer
}

// NewDispatcher creates a Dispatcher. Either collaborator may be nil, in
// which case that channel is skipped.
func NewDispatcher(broadcaster Broadcaster, mailer Mailer) *Dispatcher {
	return &Dispatcher{
		broadcaster: broadcaster,
		mailer:      mailer,
	}
}

// OrderStatusChanged notifies listeners and the order's owner that the order
// reached its current status. email may be empty when the owner has no
// address on record.
func (d *Dispatcher) OrderStatusChanged(order *models.Order, email string) {
	update := StatusUpdate{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Timestamp: time.Now(),
	}

	if d.broadcaster != nil {
		if err := d.broadcaster.BroadcastJSON(update); err != nil {
			log.Printf("Warning: failed to broadcast status update for order %s: %v", order.ID, err)
		}
	}

	if d.mailer != nil {
		if email == "" {
			log.Printf("Warning: user %s has no email address, skipping status email for order %s", order.UserID, order.ID)
		} else if err := d.mailer.SendStatusUpdate(email, order.ID, string(order.Status)); err != nil {
			log.Printf("Warning: failed to send status email for order %s: %v", order.ID, err)
		}
	}
}
