// internal/services/events.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Routing keys for domain events.
const (
	EventUserRegistered   = "user.registered"
	EventBookingCreated   = "booking.created"
	EventPaymentConfirmed = "payment.confirmed"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers domain events to a broker. Implementations must be safe
// for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// publishEvent is best effort: the write it describes has already committed.
func publishEvent(ctx context.Context, publisher EventPublisher, routingKey string, payload interface{}) {
	if publisher == nil {
		return
	}

	// Detach from the request so a client disconnect does not drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, routingKey, payload); err != nil {
		logrus.WithError(err).WithField("routing_key", routingKey).Warn("Failed to publish event")
	}
}
