// Package broker implements the Fan-out Broker (spec.md §4.7): it
// subscribes to the Event Emitter, coalesces bursts of hub events into
// one debounced notification per (fopName, eventKind), and delivers
// those light triggers to every downstream push-channel subscriber
// through its own bounded, non-blocking queue.
//
// Grounded on the teacher's core.Hub Client/clientList/trySend
// bookkeeping (api/core/events.go): per-connection buffered channel,
// best-effort non-blocking send, panic-safe close. The teacher fans
// out full CDC payloads through Redis pub/sub across processes; this
// broker fans out only {eventKind, fopName, timestamp} triggers
// in-process, since spec.md's Non-goals exclude horizontal scale-out
// and persistence (see DESIGN.md's dropped-dependency entry for
// go-redis).
package broker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
)

// Notification is the light trigger delivered to subscribers -- never
// the full hub payload (§4.7).
type Notification struct {
	EventKind   events.Kind `json:"eventKind"`
	FopName     string      `json:"fopName"`
	TimestampMs int64       `json:"timestamp"`
}

// Subscriber is one downstream push-channel connection. Queue is
// buffered to SubscriberQueueDepth; on overflow the broker drops the
// oldest pending notification and records the drop (§8
// SubscriberSlow).
type Subscriber struct {
	ID        string
	FopFilter string // empty means "all FOPs"
	Queue     chan Notification

	mu        sync.Mutex
	dropCount int64
}

// DropCount reports how many notifications this subscriber has lost
// to queue overflow.
func (s *Subscriber) DropCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropCount
}

func (s *Subscriber) recordDrop() {
	s.mu.Lock()
	s.dropCount++
	s.mu.Unlock()
}

// trySend is a non-blocking send that drops the oldest queued
// notification to make room rather than blocking the broker loop or
// silently discarding the newest event.
func trySend(sub *Subscriber, n Notification) {
	defer func() { recover() }()

	select {
	case sub.Queue <- n:
		return
	default:
	}

	select {
	case <-sub.Queue:
		sub.recordDrop()
	default:
	}

	select {
	case sub.Queue <- n:
	default:
		sub.recordDrop()
	}
}

type debounceKey struct {
	fop  string
	kind events.Kind
}

// Broker coalesces hub events and fans out debounced notifications.
type Broker struct {
	queueDepth     int
	coalesceWindow time.Duration

	mu          sync.Mutex
	subscribers map[string]*Subscriber

	pendingMu sync.Mutex
	pending   map[debounceKey]*time.Timer
}

// New constructs a Broker. queueDepth bounds each subscriber's queue
// (spec.md §6 "subscriberQueueDepth"); coalesceWindow is the per-(fop,
// eventKind) debounce interval (§6 "coalesceWindowMs").
func New(queueDepth int, coalesceWindow time.Duration) *Broker {
	return &Broker{
		queueDepth:     queueDepth,
		coalesceWindow: coalesceWindow,
		subscribers:    make(map[string]*Subscriber),
		pending:        make(map[debounceKey]*time.Timer),
	}
}

// Subscribe registers a new downstream connection. fopFilter, when
// non-empty, restricts delivery to events for that FOP; subscribers
// wanting every FOP pass an empty filter and narrow further
// client-side, per §4.7.
func (b *Broker) Subscribe(fopFilter string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		FopFilter: fopFilter,
		Queue:     make(chan Notification, b.queueDepth),
	}
	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a connection and closes its queue. The broker
// removes subscribers on any delivery failure or explicit disconnect
// (§6 "subscriber connections may be dropped at any time").
func (b *Broker) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub.ID]; !ok {
		return
	}
	delete(b.subscribers, sub.ID)
	close(sub.Queue)
}

// SubscriberCount reports the number of connected downstream clients,
// for the health/discovery surface.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Attach wires the broker to an Event Emitter: every published event
// is coalesced and, after the debounce window, fanned out. The
// returned unsubscribe func detaches the broker from the emitter.
func (b *Broker) Attach(emitter *events.Emitter) func() {
	return emitter.Subscribe(func(ctx context.Context, ev events.Event) {
		b.onEvent(ev)
	})
}

func (b *Broker) onEvent(ev events.Event) {
	key := debounceKey{fop: ev.FopName, kind: ev.Kind}

	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	if existing, ok := b.pending[key]; ok {
		// Latest event for this (fop, eventKind) wins; reset the timer
		// so a steady burst keeps coalescing instead of firing every
		// interval (§4.7 "the latest notification wins").
		existing.Stop()
	}

	b.pending[key] = time.AfterFunc(b.coalesceWindow, func() {
		b.pendingMu.Lock()
		delete(b.pending, key)
		b.pendingMu.Unlock()
		b.fanOut(Notification{EventKind: ev.Kind, FopName: ev.FopName, TimestampMs: time.Now().UnixMilli()})
	})
}

func (b *Broker) fanOut(n Notification) {
	b.mu.Lock()
	targets := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		if sub.FopFilter == "" || sub.FopFilter == n.FopName {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range targets {
		trySend(sub, n)
	}
}

// Shutdown closes every subscriber queue and cancels pending debounce
// timers. Intended for process shutdown only.
func (b *Broker) Shutdown() {
	b.pendingMu.Lock()
	for key, timer := range b.pending {
		timer.Stop()
		delete(b.pending, key)
	}
	b.pendingMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.Queue)
		delete(b.subscribers, id)
	}
	log.Printf("[Broker] shut down, all subscribers closed")
}
