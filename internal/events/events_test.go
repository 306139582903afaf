package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToEverySubscriberInOrder(t *testing.T) {
	e := New()
	var seen []Kind

	e.Subscribe(func(ctx context.Context, ev Event) { seen = append(seen, ev.Kind) })
	e.Subscribe(func(ctx context.Context, ev Event) { seen = append(seen, ev.Kind) })

	e.Publish(context.Background(), Event{Kind: Update, FopName: "A"})

	require.Equal(t, []Kind{Update, Update}, seen)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	e := New()
	calls := 0
	unsubscribe := e.Subscribe(func(ctx context.Context, ev Event) { calls++ })

	e.Publish(context.Background(), Event{Kind: Timer})
	unsubscribe()
	e.Publish(context.Background(), Event{Kind: Timer})

	require.Equal(t, 1, calls)
}

// TestPanickingSubscriberIsIsolated covers §4.11 "Subscriber callback
// error: isolate; do not propagate": a panicking subscriber must not
// stop delivery to the subscribers registered after it.
func TestPanickingSubscriberIsIsolated(t *testing.T) {
	e := New()
	var delivered bool

	e.Subscribe(func(ctx context.Context, ev Event) { panic("boom") })
	e.Subscribe(func(ctx context.Context, ev Event) { delivered = true })

	require.NotPanics(t, func() {
		e.Publish(context.Background(), Event{Kind: Update})
	})
	require.True(t, delivered)
}

// TestRepeatedlyPanickingSubscriberIsDropped covers §4.11 "unsubscribe
// if it repeatedly throws (configurable threshold)".
func TestRepeatedlyPanickingSubscriberIsDropped(t *testing.T) {
	e := New()
	e.FailureThreshold = 2

	var otherCalls int
	e.Subscribe(func(ctx context.Context, ev Event) { panic("boom") })
	e.Subscribe(func(ctx context.Context, ev Event) { otherCalls++ })

	for i := 0; i < 2; i++ {
		e.Publish(context.Background(), Event{Kind: Update})
	}
	require.Len(t, e.subscribers, 1)
	require.Equal(t, 2, otherCalls)
}

func TestSubscriberRecoversFromIntermittentFailure(t *testing.T) {
	e := New()
	e.FailureThreshold = 2

	failNext := true
	e.Subscribe(func(ctx context.Context, ev Event) {
		if failNext {
			failNext = false
			panic("transient")
		}
	})

	e.Publish(context.Background(), Event{Kind: Update}) // fails once, failures=1
	e.Publish(context.Background(), Event{Kind: Update}) // succeeds, failures reset to 0
	e.Publish(context.Background(), Event{Kind: Update}) // succeeds again

	require.Len(t, e.subscribers, 1)
}
