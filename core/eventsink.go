package core

import "pkt.systems/uqlabs/schema"

// EventSink receives notebook, job and notification events from the core service.
type EventSink interface {
	OnNotebookEvent(event schema.NotebookEvent)
	OnJobEvent(event schema.JobEvent)
	OnNotify(event schema.NotifyEvent)
}
