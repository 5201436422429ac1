package transaction

import (
	"context"
	"fmt"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/reservation"
)

const (
	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
)

type Event struct {
	Type           string                  `json:"type"`
	Reservation    reservation.Reservation `json:"reservation"`
	RestaurantName string                  `json:"restaurant_name"`
	OccurredAt     string                  `json:"occurred_at"`
}

// Notifier receives committed reservation events. Errors are logged by the service
// and never undo the commit.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type Publisher interface {
	Publish(ctx context.Context, destination string, payload any) (string, error)
}

// PublishingNotifier forwards events to a message queue destination.
type PublishingNotifier struct {
	pub         Publisher
	destination string
}

var _ Notifier = (*PublishingNotifier)(nil)

func NewPublishingNotifier(pub Publisher, destination string) *PublishingNotifier {
	return &PublishingNotifier{pub: pub, destination: destination}
}

func (n *PublishingNotifier) Notify(ctx context.Context, ev Event) error {
	if _, err := n.pub.Publish(ctx, n.destination, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
