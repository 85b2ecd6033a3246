package schema

// NotebookEventType describes notebook lifecycle or cell changes.
type NotebookEventType string

const (
	// NotebookEventCreated indicates a notebook was created.
	NotebookEventCreated NotebookEventType = "created"
	// NotebookEventActivated indicates a notebook became active.
	NotebookEventActivated NotebookEventType = "activated"
	// NotebookEventSaved indicates a notebook was saved.
	NotebookEventSaved NotebookEventType = "saved"
	// NotebookEventCellAdded indicates a cell was appended.
	NotebookEventCellAdded NotebookEventType = "cell_added"
	// NotebookEventCellUpdated indicates a cell changed.
	NotebookEventCellUpdated NotebookEventType = "cell_updated"
	// NotebookEventCellDeleted indicates a cell was removed.
	NotebookEventCellDeleted NotebookEventType = "cell_deleted"
	// NotebookEventRunStarted indicates a cell run was dispatched.
	NotebookEventRunStarted NotebookEventType = "run_started"
	// NotebookEventRunFinished indicates a cell run completed or failed.
	NotebookEventRunFinished NotebookEventType = "run_finished"
)

// NotebookEvent represents a change to a notebook or one of its cells.
type NotebookEvent struct {
	Type       NotebookEventType `json:"type"`
	NotebookID NotebookID        `json:"notebook_id"`
	CellID     CellID            `json:"cell_id,omitempty"`
	Cell       *Cell             `json:"cell,omitempty"`
	Unsaved    bool              `json:"unsaved"`
}

// JobEvent carries the latest state of a job record.
type JobEvent struct {
	Job JobRecord `json:"job"`
}

// NotifyLevel is the severity of a transient notification.
type NotifyLevel string

const (
	// NotifyInfo is an informational notification.
	NotifyInfo NotifyLevel = "info"
	// NotifyWarn is a warning notification.
	NotifyWarn NotifyLevel = "warn"
	// NotifyError is an error notification.
	NotifyError NotifyLevel = "error"
)

// NotifyEvent is a transient, user-facing notification.
type NotifyEvent struct {
	Level      NotifyLevel `json:"level"`
	Message    string      `json:"message"`
	NotebookID NotebookID  `json:"notebook_id,omitempty"`
	CellID     CellID      `json:"cell_id,omitempty"`
}
