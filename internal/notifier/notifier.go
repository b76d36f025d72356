// Package notifier delivers alert events to outbound channels. Delivery
// is best effort: a failed channel is logged and counted, never surfaced
// to the request path.
package notifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
)

// AlertEvent is the payload pushed to notification channels.
type AlertEvent struct {
	AlertUID     string  `json:"alert_uid"`
	TxHash       string  `json:"tx_hash"`
	AlertType    string  `json:"alert_type"`
	Severity     string  `json:"severity"`
	Message      string  `json:"message"`
	AnomalyScore float64 `json:"anomaly_score"`
	CreatedAt    int64   `json:"created_at"`
}

// Notifier delivers one alert event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event *AlertEvent) error
}

// Fanout dispatches an event to every configured channel concurrently.
type Fanout struct {
	notifiers []Notifier
	timeout   time.Duration
}

// NewFanout creates a fanout over the given channels.
func NewFanout(timeout time.Duration, notifiers ...Notifier) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{notifiers: notifiers, timeout: timeout}
}

// Dispatch sends the event to all channels and returns once every
// channel finished or timed out. It never returns an error: the caller's
// unit of work is already committed by the time dispatch runs.
func (f *Fanout) Dispatch(event *AlertEvent) {
	if len(f.notifiers) == 0 {
		return
	}

	// detached from the request context on purpose: a cancelled request
	// must not abort an already-committed alert
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, n := range f.notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := n.Notify(ctx, event); err != nil {
				metrics.RecordNotification(n.Name(), false)
				logger.L().Error("alert notification failed",
					zap.String("channel", n.Name()),
					zap.String("alert_uid", event.AlertUID),
					zap.Error(err))
				return
			}
			metrics.RecordNotification(n.Name(), true)
		}(n)
	}
	wg.Wait()
}
