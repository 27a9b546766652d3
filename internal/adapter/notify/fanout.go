package notify

import (
	"context"
	"errors"

	"rentadvance-backend/internal/domain/notification"

	"github.com/rs/zerolog"
)

// Fanout delivers every event to all notifiers and joins their errors.
type Fanout []notification.Notifier

func (f Fanout) Notify(ctx context.Context, ev notification.Event) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (l *LogNotifier) Notify(_ context.Context, ev notification.Event) error {
	l.log.Info().
		Str("type", string(ev.Type)).
		Str("group_key", ev.GroupKey).
		Strs("advance_ids", ev.AdvanceIDs).
		Str("total_amount", ev.TotalAmount.StringFixed(2)).
		Int("recipients", len(ev.Recipients)).
		Msg("notification")
	return nil
}
