// Package notify delivers lifecycle events to the outside world.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rentadvance-backend/internal/domain/notification"

	"github.com/rs/zerolog"
)

// SubjectPrefix is followed by the event type, e.g.
// notifications.rentadvance.advance.requested.
const SubjectPrefix = "notifications.rentadvance."

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Message is the JSON body published per recipient.
type Message struct {
	Recipient notification.Recipient `json:"recipient"`
	Event     notification.Event     `json:"event"`
}

// NATSNotifier publishes one message per recipient. The owner link is only
// included in the message addressed to the owner.
type NATSNotifier struct {
	pub Publisher
	log zerolog.Logger
}

func NewNATSNotifier(pub Publisher, log zerolog.Logger) *NATSNotifier {
	return &NATSNotifier{pub: pub, log: log}
}

func Subject(t notification.Type) string { return SubjectPrefix + string(t) }

func (n *NATSNotifier) Notify(ctx context.Context, ev notification.Event) error {
	if n.pub == nil || len(ev.Recipients) == 0 {
		return nil
	}
	subject := Subject(ev.Type)

	var errs []error
	for _, rcpt := range ev.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload := ev.Public()
		if rcpt.Role == notification.RoleOwner {
			payload = ev
		}
		payload.Recipients = []notification.Recipient{rcpt}

		data, err := json.Marshal(Message{Recipient: rcpt, Event: payload})
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal %s: %w", ev.Type, err))
			continue
		}
		if err := n.pub.Publish(subject, data); err != nil {
			errs = append(errs, fmt.Errorf("publish %s to %s: %w", subject, rcpt.Role, err))
			continue
		}
		n.log.Debug().
			Str("subject", subject).
			Str("group_key", ev.GroupKey).
			Str("recipient_role", string(rcpt.Role)).
			Msg("notification: event published")
	}
	return errors.Join(errs...)
}
