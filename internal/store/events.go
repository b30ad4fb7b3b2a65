package store

import (
	"github.com/rafabd1/vipmanager/internal/member"
)

// EventKind names what happened to the store.
type EventKind string

const (
	EventLoaded        EventKind = "loaded"
	EventAdded         EventKind = "added"
	EventUpdated       EventKind = "updated"
	EventDeleted       EventKind = "deleted"
	EventPersisted     EventKind = "persisted"
	EventPersistFailed EventKind = "persist_failed"
	EventRolledBack    EventKind = "rolled_back"
)

// Event is published to subscribers after every change to the list and after
// every persist attempt.
type Event struct {
	Kind   EventKind
	Op     Op            // mutation the event belongs to; empty for EventLoaded
	Member member.Member // subject of the mutation; zero for EventLoaded
	Count  int           // list length after the change
	Err    error         // set for EventPersistFailed and EventRolledBack
}

// Op is the mutation that queued a persist.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpResync Op = "resync"
)

const subscriberBuffer = 32

// Subscribe returns a channel receiving every event from now on. The channel is
// closed by Close. Events are dropped for a subscriber whose buffer is full.
func (s *Store) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.WithField("event", ev.Kind).Warn("subscriber buffer full; dropping store event")
		}
	}
}

func (s *Store) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
