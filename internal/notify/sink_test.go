package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/registra-io/registra/internal/pubsub"
	registry "github.com/registra-io/registra/internal/registry/domain"
)

type failingSink struct{ calls int }

func (s *failingSink) Notify(StatusChange) error {
	s.calls++
	return errors.New("smtp down")
}

type countingSink struct{ calls int }

func (s *countingSink) Notify(StatusChange) error {
	s.calls++
	return nil
}

func sampleChange() StatusChange {
	return StatusChange{
		ItemID:    "item-1",
		OldStatus: registry.StatusCandidate,
		NewStatus: registry.StatusRecorded,
		Actor:     "ra",
		At:        time.Now().UTC(),
	}
}

func TestFanout_DeliversToEverySink(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}

	f := NewFanout(a, b)
	require.NoError(t, f.Notify(sampleChange()))

	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
}

func TestFanout_SinkFailureDoesNotStopOthers(t *testing.T) {
	bad := &failingSink{}
	good := &countingSink{}

	f := NewFanout(bad, good)
	require.NoError(t, f.Notify(sampleChange()), "sink failures are swallowed")

	require.Equal(t, 1, bad.calls)
	require.Equal(t, 1, good.calls)
}

func TestBrokerSink_PublishesToSubscribers(t *testing.T) {
	sink := NewBrokerSink()
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := sink.Broker().Subscribe(ctx)

	change := sampleChange()
	require.NoError(t, sink.Notify(change))

	select {
	case event := <-events:
		require.Equal(t, pubsub.StatusChangedEvent, event.Type)
		require.Equal(t, change, event.Payload)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestLogSink_NeverFails(t *testing.T) {
	require.NoError(t, LogSink{}.Notify(sampleChange()))
}
