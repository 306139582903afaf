// Package events is the Event Emitter: it publishes typed hub events to
// in-process subscribers. Grounded on the teacher's core.Hub dispatch
// loop (api/core/events.go), narrowed from Redis-backed cross-process
// pub/sub to a single-process fan-out, since spec.md Non-goals exclude
// horizontal scale-out.
package events

import (
	"context"
	"log"
	"sort"
	"sync"
)

// Kind is the closed set of typed events the hub emits.
type Kind string

const (
	Database          Kind = "DATABASE"
	DatabaseReady     Kind = "DATABASE_READY"
	Update            Kind = "UPDATE"
	Timer             Kind = "TIMER"
	Decision          Kind = "DECISION"
	SessionDone       Kind = "SESSION_DONE"
	SessionReopened   Kind = "SESSION_REOPENED"
	HubReady          Kind = "HUB_READY"
	FlagsLoaded       Kind = "FLAGS_LOADED"
	LogosLoaded       Kind = "LOGOS_LOADED"
	PicturesLoaded    Kind = "PICTURES_LOADED"
	StylesLoaded      Kind = "STYLES_LOADED"
	TranslationsLoaded Kind = "TRANSLATIONS_LOADED"
)

// Event is one typed notification. FopName is empty for global events
// (DATABASE, HUB_READY, *_LOADED). EntryCount is set for *_LOADED
// events; SessionName is set for SESSION_DONE/SESSION_REOPENED.
type Event struct {
	Kind        Kind
	FopName     string
	SessionName string
	EntryCount  int
}

// Subscriber receives events. Implementations must not block for long;
// a slow/erroring subscriber is isolated by the Emitter (§4.11).
type Subscriber func(ctx context.Context, ev Event)

// Emitter fans out events to in-process subscribers. Subscriber errors
// (panics) are isolated and do not propagate; a subscriber that panics
// repeatedly is dropped once it crosses FailureThreshold.
type Emitter struct {
	// FailureThreshold is the number of consecutive panics tolerated
	// from one subscriber before it is unsubscribed. Zero means use
	// the default of 3.
	FailureThreshold int

	mu          sync.Mutex
	subscribers map[int]*subscription
	nextID      int
}

type subscription struct {
	fn       Subscriber
	failures int
}

// New constructs an empty Emitter.
func New() *Emitter {
	return &Emitter{subscribers: make(map[int]*subscription)}
}

// Subscribe registers fn and returns an unsubscribe function.
func (e *Emitter) Subscribe(fn Subscriber) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subscribers[id] = &subscription{fn: fn}
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Publish delivers ev to every current subscriber in the order they
// subscribed. For one FOP, events are emitted in the same order as the
// frames that caused them (callers must invoke Publish from the hub's
// single serialized mutation path to preserve this, per spec.md §5).
func (e *Emitter) Publish(ctx context.Context, ev Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.subscribers))
	for id := range e.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]*subscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, e.subscribers[id])
	}
	threshold := e.FailureThreshold
	if threshold <= 0 {
		threshold = 3
	}
	e.mu.Unlock()

	var toDrop []int
	for i, s := range subs {
		if e.invoke(ctx, s, ev) {
			s.failures = 0
		} else {
			s.failures++
			if s.failures >= threshold {
				toDrop = append(toDrop, ids[i])
			}
		}
	}

	if len(toDrop) > 0 {
		e.mu.Lock()
		for _, id := range toDrop {
			delete(e.subscribers, id)
			log.Printf("[EventEmitter] dropped subscriber %d after repeated failures", id)
		}
		e.mu.Unlock()
	}
}

// invoke calls a subscriber, recovering from panics so one bad
// subscriber cannot take down event delivery to the rest (§4.11).
func (e *Emitter) invoke(ctx context.Context, s *subscription, ev Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EventEmitter] subscriber panic: %v", r)
			ok = false
		}
	}()
	s.fn(ctx, ev)
	return true
}
