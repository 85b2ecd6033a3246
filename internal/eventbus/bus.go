package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventNotebook carries notebook and cell updates.
	EventNotebook EventType = "notebook"
	// EventJob carries job record updates.
	EventJob EventType = "job"
	// EventNotify carries transient notifications.
	EventNotify EventType = "notify"
)

// Event represents a UI-facing event emitted by the core service.
type Event struct {
	Type     EventType
	Notebook schema.NotebookEvent
	Job      schema.JobEvent
	Notify   schema.NotifyEvent
}

// All subscribes to every event regardless of notebook.
const All schema.NotebookID = ""

// Bus fans events out to subscribers. A subscriber either follows a single
// notebook or All; job events only reach All subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.NotebookID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.NotebookID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe(notebookID schema.NotebookID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	topicSubs := b.subs[notebookID]
	if topicSubs == nil {
		topicSubs = make(map[chan Event]struct{})
		b.subs[notebookID] = topicSubs
	}
	topicSubs[ch] = struct{}{}
	count := len(topicSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("notebook", notebookID).Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[notebookID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, notebookID)
				}
			}
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				b.log.With("notebook", notebookID).Debug("eventbus unsubscribe")
			}
		})
	}
}

// OnNotebookEvent publishes a notebook event.
func (b *Bus) OnNotebookEvent(event schema.NotebookEvent) {
	b.publish(event.NotebookID, Event{Type: EventNotebook, Notebook: event})
}

// OnJobEvent publishes a job event.
func (b *Bus) OnJobEvent(event schema.JobEvent) {
	b.publish(All, Event{Type: EventJob, Job: event})
}

// OnNotify publishes a notification.
func (b *Bus) OnNotify(event schema.NotifyEvent) {
	b.publish(event.NotebookID, Event{Type: EventNotify, Notify: event})
}

func (b *Bus) publish(notebookID schema.NotebookID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	var subs []chan Event
	for sub := range b.subs[notebookID] {
		subs = append(subs, sub)
	}
	if notebookID != All {
		for sub := range b.subs[All] {
			subs = append(subs, sub)
		}
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 && b.log != nil {
		b.log.With("notebook", notebookID).Trace("eventbus dropped", "count", dropped)
	}
}
