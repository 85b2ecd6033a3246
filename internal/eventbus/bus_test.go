package eventbus

import (
	"testing"
	"time"

	"pkt.systems/uqlabs/schema"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("nb1")
	defer cancel()

	event := schema.NotebookEvent{Type: schema.NotebookEventCellAdded, NotebookID: "nb1", CellID: "c1"}
	bus.OnNotebookEvent(event)

	got := receive(t, ch)
	if got.Type != EventNotebook {
		t.Fatalf("expected notebook event, got %v", got.Type)
	}
	if got.Notebook.NotebookID != event.NotebookID || got.Notebook.CellID != event.CellID {
		t.Fatalf("unexpected payload: %+v", got.Notebook)
	}
}

func TestNotebookSubscriberIgnoresOtherNotebooks(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("nb1")
	defer cancel()

	bus.OnNotify(schema.NotifyEvent{Level: schema.NotifyError, Message: "other", NotebookID: "nb2"})
	bus.OnJobEvent(schema.JobEvent{Job: schema.JobRecord{ID: "job-1"}})
	bus.OnNotify(schema.NotifyEvent{Level: schema.NotifyInfo, Message: "mine", NotebookID: "nb1"})

	got := receive(t, ch)
	if got.Type != EventNotify || got.Notify.Message != "mine" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestAllSubscriberSeesEverything(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe(All)
	defer cancel()

	bus.OnNotebookEvent(schema.NotebookEvent{Type: schema.NotebookEventCreated, NotebookID: "nb1"})
	bus.OnJobEvent(schema.JobEvent{Job: schema.JobRecord{ID: "job-1", Status: schema.JobRunning}})

	if got := receive(t, ch); got.Type != EventNotebook {
		t.Fatalf("expected notebook event first, got %v", got.Type)
	}
	got := receive(t, ch)
	if got.Type != EventJob || got.Job.Job.ID != "job-1" {
		t.Fatalf("unexpected job event: %+v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("nb1")
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	bus.OnNotebookEvent(schema.NotebookEvent{NotebookID: "nb1"})
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe("nb1")
	defer cancel()

	var sendCh chan Event
	bus.mu.Lock()
	for ch := range bus.subs["nb1"] {
		sendCh = ch
		break
	}
	bus.mu.Unlock()
	if sendCh == nil {
		t.Fatalf("expected subscriber channel")
	}
	sendCh <- Event{Type: EventNotify}
	done := make(chan struct{})
	go func() {
		bus.OnNotify(schema.NotifyEvent{NotebookID: "nb1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
