package schema

// StreamEventType names the payload carried by a transport stream event.
type StreamEventType string

const (
	// StreamNotebook carries a NotebookEvent.
	StreamNotebook StreamEventType = "notebook"
	// StreamJob carries a JobEvent.
	StreamJob StreamEventType = "job"
	// StreamNotify carries a NotifyEvent.
	StreamNotify StreamEventType = "notify"
	// StreamSnapshot seeds a newly connected client.
	StreamSnapshot StreamEventType = "snapshot"
)
