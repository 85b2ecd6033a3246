package uqlabs

import (
	"pkt.systems/uqlabs/core"
	"pkt.systems/uqlabs/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnNotebookEvent(event schema.NotebookEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNotebookEvent(event)
	}
}

func (f eventFanout) OnJobEvent(event schema.JobEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnJobEvent(event)
	}
}

func (f eventFanout) OnNotify(event schema.NotifyEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNotify(event)
	}
}
