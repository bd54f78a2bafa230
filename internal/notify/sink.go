// Package notify delivers best-effort notifications on status changes and
// decisions. Delivery is advisory, not authoritative: a failing sink is
// logged and swallowed, never surfaced as a governance error.
package notify

import (
	"time"

	"github.com/registra-io/registra/internal/log"
	"github.com/registra-io/registra/internal/pubsub"
	registry "github.com/registra-io/registra/internal/registry/domain"
)

// StatusChange is the payload carried by every notification.
type StatusChange struct {
	ItemID    string
	OldStatus registry.RegistrationStatus
	NewStatus registry.RegistrationStatus
	Actor     string
	At        time.Time
}

// Sink receives status-change notifications.
type Sink interface {
	Notify(change StatusChange) error
}

// Fanout dispatches one change to every sink, fire-and-forget. Each sink
// failure is logged; none aborts the others and none propagates.
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a fan-out over the given sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Notify dispatches the change. The error return is always nil; it exists
// so Fanout itself satisfies Sink.
func (f *Fanout) Notify(change StatusChange) error {
	for _, s := range f.sinks {
		if err := s.Notify(change); err != nil {
			log.ErrorErr(log.CatNotify, "notification sink failed", err,
				"item_id", change.ItemID, "new_status", change.NewStatus)
		}
	}
	return nil
}

// BrokerSink publishes changes on a pubsub broker so in-process subscribers
// (CLI followers, tests) can observe them.
type BrokerSink struct {
	broker *pubsub.Broker[StatusChange]
}

// NewBrokerSink creates a sink over a fresh broker.
func NewBrokerSink() *BrokerSink {
	return &BrokerSink{broker: pubsub.NewBroker[StatusChange]()}
}

// Broker exposes the underlying broker for subscription.
func (s *BrokerSink) Broker() *pubsub.Broker[StatusChange] {
	return s.broker
}

// Notify publishes the change. Publishing is non-blocking and never fails.
func (s *BrokerSink) Notify(change StatusChange) error {
	s.broker.Publish(pubsub.StatusChangedEvent, change)
	return nil
}

// Close shuts the broker down.
func (s *BrokerSink) Close() {
	s.broker.Close()
}

// LogSink records changes in the structured log.
type LogSink struct{}

// Notify writes one log line per change.
func (LogSink) Notify(change StatusChange) error {
	log.Info(log.CatNotify, "status changed",
		"item_id", change.ItemID,
		"old_status", change.OldStatus,
		"new_status", change.NewStatus,
		"actor", change.Actor)
	return nil
}
