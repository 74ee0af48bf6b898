package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"carrental/internal/logger"
	"carrental/internal/metrics"
)

// ChannelResult is the outcome of one channel for one reservation.
type ChannelResult struct {
	Channel string `json:"channel"`
	Error   string `json:"error,omitempty"`
}

type DispatchReport struct {
	Results []ChannelResult `json:"results"`
}

func (r DispatchReport) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Error == "" {
			n++
		}
	}
	return n
}

func (r DispatchReport) Failed() int {
	return len(r.Results) - r.Delivered()
}

// NotificationDispatcher runs every channel as an independent task and waits
// for all of them. A failing channel never affects the others.
type NotificationDispatcher struct {
	notifiers []Notifier
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewNotificationDispatcher(log *logger.Logger, m *metrics.Metrics, notifiers ...Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{notifiers: notifiers, log: log, metrics: m, now: time.Now}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, n Notification) DispatchReport {
	if n.Timestamp.IsZero() {
		n.Timestamp = d.now()
	}

	results := make([]ChannelResult, len(d.notifiers))
	var g errgroup.Group
	for i, notifier := range d.notifiers {
		i, notifier := i, notifier
		g.Go(func() error {
			results[i] = ChannelResult{Channel: notifier.Name()}
			if err := notifier.Notify(ctx, n); err != nil {
				results[i].Error = err.Error()
				d.metrics.Notifications.WithLabelValues(notifier.Name(), metrics.OutcomeFailure).Inc()
				d.log.Error("Notification failed",
					"reservation_id", n.ReservationID,
					"channel", notifier.Name(),
					"error", err,
				)
				return nil
			}
			d.metrics.Notifications.WithLabelValues(notifier.Name(), metrics.OutcomeSuccess).Inc()
			d.log.Info("Notification sent",
				"reservation_id", n.ReservationID,
				"channel", notifier.Name(),
			)
			return nil
		})
	}
	_ = g.Wait()

	return DispatchReport{Results: results}
}
