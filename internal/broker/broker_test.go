package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
)

func TestSubscribeAndUnsubscribeTracksCount(t *testing.T) {
	b := New(4, 10*time.Millisecond)
	sub := b.Subscribe("")
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	require.Equal(t, 0, b.SubscriberCount())
}

func TestCoalescesBurstIntoOneNotification(t *testing.T) {
	b := New(4, 30*time.Millisecond)
	emitter := events.New()
	detach := b.Attach(emitter)
	defer detach()

	sub := b.Subscribe("")

	for i := 0; i < 5; i++ {
		emitter.Publish(context.Background(), events.Event{Kind: events.Update, FopName: "A"})
	}

	time.Sleep(80 * time.Millisecond)
	require.Len(t, sub.Queue, 1)
}

func TestFopFilterOnlyDeliversMatchingEvents(t *testing.T) {
	b := New(4, 5*time.Millisecond)
	emitter := events.New()
	detach := b.Attach(emitter)
	defer detach()

	sub := b.Subscribe("A")

	emitter.Publish(context.Background(), events.Event{Kind: events.Update, FopName: "B"})
	time.Sleep(30 * time.Millisecond)
	require.Len(t, sub.Queue, 0)

	emitter.Publish(context.Background(), events.Event{Kind: events.Update, FopName: "A"})
	time.Sleep(30 * time.Millisecond)
	require.Len(t, sub.Queue, 1)
}

func TestOverflowDropsOldestAndRecordsDropCount(t *testing.T) {
	b := New(1, time.Millisecond)
	sub := b.Subscribe("")

	trySend(sub, Notification{FopName: "A", EventKind: events.Update})
	trySend(sub, Notification{FopName: "A", EventKind: events.Timer})

	require.Len(t, sub.Queue, 1)
	require.Equal(t, int64(1), sub.DropCount())

	n := <-sub.Queue
	require.Equal(t, events.Timer, n.EventKind) // the newer one survived
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(4, time.Millisecond)
	sub := b.Subscribe("")
	b.Unsubscribe(sub)
	require.NotPanics(t, func() { b.Unsubscribe(sub) })
}
