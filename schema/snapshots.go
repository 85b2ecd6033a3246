package schema

import "time"

// Cell is a read-only view of a notebook cell.
type Cell struct {
	ID       CellID   `json:"id"`
	Kind     CellKind `json:"kind"`
	Content  string   `json:"content"`
	Language Language `json:"language,omitempty"`
	// Output is the last normalized run output; HasOutput distinguishes "" from never set.
	Output    string `json:"output,omitempty"`
	HasOutput bool   `json:"has_output"`
	Running   bool   `json:"running"`
	HasRun    bool   `json:"has_run"`
	Skipped   bool   `json:"skipped"`
}

// NotebookSnapshot is a read-only view of a notebook and its cells.
type NotebookSnapshot struct {
	ID      NotebookID `json:"id"`
	Name    string     `json:"name"`
	Cells   []Cell     `json:"cells"`
	Unsaved bool       `json:"unsaved"`
	SavedAt *time.Time `json:"saved_at,omitempty"`
	Active  bool       `json:"active"`
}

// Cell returns the cell with the given id.
func (n NotebookSnapshot) Cell(id CellID) (Cell, bool) {
	for _, cell := range n.Cells {
		if cell.ID == id {
			return cell, true
		}
	}
	return Cell{}, false
}

// JobRecord tracks an asynchronous backend job.
type JobRecord struct {
	ID        JobID     `json:"id"`
	Provider  string    `json:"provider"`
	Backend   string    `json:"backend,omitempty"`
	Status    JobStatus `json:"status"`
	Result    string    `json:"result,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	// Failures counts consecutive status fetch failures.
	Failures int `json:"failures,omitempty"`
}

// Message is a single chat turn.
type Message struct {
	ID      MessageID `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
}

// Chat is an assistant conversation.
type Chat struct {
	ID       ChatID    `json:"id"`
	Title    string    `json:"title"`
	Mode     ChatMode  `json:"mode"`
	Messages []Message `json:"messages"`
	ModelID  ModelID   `json:"model_id"`
}

// ModelInfo describes a selectable assistant model.
type ModelInfo struct {
	ID       ModelID `json:"id"`
	Name     string  `json:"name"`
	Provider string  `json:"provider,omitempty"`
	Custom   bool    `json:"custom"`
}

// HardwareBackend describes a quantum backend reported by the service.
type HardwareBackend struct {
	Name        string `json:"name"`
	NumQubits   *int   `json:"num_qubits,omitempty"`
	Simulator   bool   `json:"simulator"`
	Operational *bool  `json:"operational,omitempty"`
	Status      string `json:"status,omitempty"`
	PendingJobs *int   `json:"pending_jobs,omitempty"`
}
