package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/queue"
)

type Message struct {
	Recipient reservation.Recipient `json:"recipient"`
	Summary   reservation.Summary   `json:"summary"`
	Subject   string                `json:"subject"`
	Body      string                `json:"body"`
}

// QueueNotifier leaves delivery to whoever consumes the notification exchange.
type QueueNotifier struct {
	queue    queue.Publisher
	exchange string
}

func NewQueueNotifier(pub queue.Publisher, exchange string) *QueueNotifier {
	return &QueueNotifier{queue: pub, exchange: exchange}
}

func (n *QueueNotifier) Notify(ctx context.Context, recipient reservation.Recipient, summary reservation.Summary) error {
	msg := Message{
		Recipient: recipient,
		Summary:   summary,
		Subject:   subject(summary),
		Body:      body(recipient, summary),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize notification")
	}
	if err = n.queue.Publish(ctx, n.exchange, b); err != nil {
		return errors.WithMessage(err, "failed to publish notification")
	}
	return nil
}
