package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

const defaultHubHistory = 1000

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                 `json:"seq"`
	Type      schema.StreamEventType `json:"type"`
	Notebook  *schema.NotebookEvent  `json:"notebook,omitempty"`
	Job       *schema.JobRecord      `json:"job,omitempty"`
	Notify    *schema.NotifyEvent    `json:"notify,omitempty"`
	Snapshot  *SnapshotPayload       `json:"snapshot,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Notebooks []schema.NotebookSnapshot `json:"notebooks"`
	Active    schema.NotebookID         `json:"active"`
	Jobs      []schema.JobRecord        `json:"jobs"`
}

// Hub broadcasts service events to stream subscribers and keeps a bounded
// history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = defaultHubHistory
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnNotebookEvent implements core.EventSink.
func (h *Hub) OnNotebookEvent(event schema.NotebookEvent) {
	log := logx.WithNotebookCell(context.Background(), event.NotebookID, event.CellID)
	log.Trace("hub notebook event", "type", event.Type)
	h.publish(StreamEvent{
		Type:      schema.StreamNotebook,
		Notebook:  &event,
		Timestamp: time.Now(),
	})
}

// OnJobEvent implements core.EventSink.
func (h *Hub) OnJobEvent(event schema.JobEvent) {
	logx.WithJob(logx.Ctx(context.Background()), event.Job).Trace("hub job event", "status", event.Job.Status)
	job := event.Job
	h.publish(StreamEvent{
		Type:      schema.StreamJob,
		Job:       &job,
		Timestamp: time.Now(),
	})
}

// OnNotify implements core.EventSink.
func (h *Hub) OnNotify(event schema.NotifyEvent) {
	logx.Ctx(context.Background()).Trace("hub notify event", "level", event.Level)
	h.publish(StreamEvent{
		Type:      schema.StreamNotify,
		Notify:    &event,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (h *Hub) Subscribe() (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	log := logx.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "history", len(h.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		logx.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
