package schema

// Notebook lifecycle.

// CreateNotebookRequest describes a request to create a starter notebook.
type CreateNotebookRequest struct {
	Name string
}

// CreateNotebookResponse reports the created notebook.
type CreateNotebookResponse struct {
	Notebook NotebookSnapshot
}

// ListNotebooksRequest describes a request to list notebooks.
type ListNotebooksRequest struct{}

// ListNotebooksResponse reports notebooks in creation order.
type ListNotebooksResponse struct {
	Notebooks []NotebookSnapshot
	Active    NotebookID
}

// ActivateNotebookRequest describes a request to switch the active notebook.
type ActivateNotebookRequest struct {
	NotebookID NotebookID
}

// ActivateNotebookResponse reports the activated notebook.
type ActivateNotebookResponse struct {
	Notebook NotebookSnapshot
}

// GetNotebookRequest fetches a notebook. An empty id selects the active one.
type GetNotebookRequest struct {
	NotebookID NotebookID
}

// GetNotebookResponse reports the notebook snapshot.
type GetNotebookResponse struct {
	Notebook NotebookSnapshot
}

// SaveNotebookRequest clears the unsaved flag of a notebook.
type SaveNotebookRequest struct {
	NotebookID NotebookID
}

// SaveNotebookResponse reports the saved notebook.
type SaveNotebookResponse struct {
	Notebook NotebookSnapshot
}

// Cell store.

// AddCellRequest appends an empty cell of the given kind.
type AddCellRequest struct {
	NotebookID NotebookID
	Kind       CellKind
}

// AddCellResponse reports the appended cell.
type AddCellResponse struct {
	Cell Cell
}

// DeleteCellRequest removes a cell.
type DeleteCellRequest struct {
	NotebookID NotebookID
	CellID     CellID
}

// DeleteCellResponse reports whether a cell was removed.
type DeleteCellResponse struct {
	Deleted bool
}

// UpdateCellContentRequest replaces the content of a cell.
type UpdateCellContentRequest struct {
	NotebookID NotebookID
	CellID     CellID
	Content    string
}

// UpdateCellLanguageRequest replaces the language tag of a cell.
type UpdateCellLanguageRequest struct {
	NotebookID NotebookID
	CellID     CellID
	Language   Language
}

// ToggleSkipRequest flips the skipped flag of a cell.
type ToggleSkipRequest struct {
	NotebookID NotebookID
	CellID     CellID
}

// UpdateCellResponse reports the updated cell.
type UpdateCellResponse struct {
	Cell Cell
}

// Execution.

// NoiseOptions configures the simulated noise model.
type NoiseOptions struct {
	Enabled  bool
	Strength float64
	Metrics  bool
}

// RunCellRequest describes a request to execute a cell.
type RunCellRequest struct {
	NotebookID NotebookID
	CellID     CellID
	Context    RunContext
	Mode       SimulationMode
	Shots      int
	Noise      NoiseOptions
}

// RunCellResponse reports the cell after the run. Error carries the
// backend failure message when the run did not complete; the same text is
// in the cell output.
type RunCellResponse struct {
	Cell  Cell
	Error string
}

// RunAllRequest runs every non-skipped code cell in order.
type RunAllRequest struct {
	NotebookID NotebookID
	Context    RunContext
	Mode       SimulationMode
	Shots      int
	Noise      NoiseOptions
}

// RunAllResponse reports the notebook after all runs.
type RunAllResponse struct {
	Notebook NotebookSnapshot
	Ran      int
	Failed   int
	Skipped  int
}

// PreviewCellRequest renders a circuit preview for a qasm cell.
type PreviewCellRequest struct {
	NotebookID NotebookID
	CellID     CellID
}

// PreviewCellResponse reports the preview and local circuit metrics.
type PreviewCellResponse struct {
	Preview       string
	Qubits        int
	Gates         int
	Depth         int
	TwoQubitGates int
	Transpiled    CircuitStats
}

// CircuitStats summarizes a local transpilation onto the preview backend.
type CircuitStats struct {
	Backend        string  `json:"backend"`
	OriginalDepth  int     `json:"original_depth"`
	FinalDepth     int     `json:"final_depth"`
	OriginalGates  int     `json:"original_gates"`
	FinalGates     int     `json:"final_gates"`
	DepthReduction float64 `json:"depth_reduction"`
	GateReduction  float64 `json:"gate_reduction"`
}

// SetPrewarmRequest toggles the environment pre-warmer.
type SetPrewarmRequest struct {
	Enabled bool
}

// SetPrewarmResponse reports the pre-warmer state.
type SetPrewarmResponse struct {
	Enabled bool
}

// Jobs.

// SubmitJobRequest submits code to a hardware provider.
type SubmitJobRequest struct {
	Provider string
	Code     string
	Language Language
	Backend  string
	Shots    int
	Jobs     int
}

// SubmitJobResponse reports the records created for the returned job ids.
type SubmitJobResponse struct {
	Jobs []JobRecord
}

// ListJobsRequest lists tracked jobs.
type ListJobsRequest struct{}

// ListJobsResponse reports jobs in submission order.
type ListJobsResponse struct {
	Jobs []JobRecord
}

// GetJobRequest fetches a job record.
type GetJobRequest struct {
	JobID JobID
}

// GetJobResponse reports the job record.
type GetJobResponse struct {
	Job JobRecord
}

// ListBackendsRequest lists hardware backends.
type ListBackendsRequest struct{}

// ListBackendsResponse reports hardware backends.
type ListBackendsResponse struct {
	Backends []HardwareBackend
}

// Assistant.

// NewChatRequest creates a chat.
type NewChatRequest struct {
	Title   string
	Mode    ChatMode
	ModelID ModelID
}

// NewChatResponse reports the created chat.
type NewChatResponse struct {
	Chat Chat
}

// ListChatsRequest lists chats.
type ListChatsRequest struct{}

// ListChatsResponse reports chats in creation order.
type ListChatsResponse struct {
	Chats []Chat
}

// GetChatRequest fetches a chat.
type GetChatRequest struct {
	ChatID ChatID
}

// GetChatResponse reports the chat.
type GetChatResponse struct {
	Chat Chat
}

// DeleteChatRequest removes a chat.
type DeleteChatRequest struct {
	ChatID ChatID
}

// DeleteChatResponse reports whether a chat was removed.
type DeleteChatResponse struct {
	Deleted bool
}

// SendMessageRequest sends a user message and waits for the reply.
type SendMessageRequest struct {
	ChatID  ChatID
	Content string
}

// SendMessageResponse reports the updated chat and the assistant reply.
type SendMessageResponse struct {
	Chat  Chat
	Reply Message
}

// ListModelsRequest lists selectable assistant models.
type ListModelsRequest struct{}

// ListModelsResponse reports built-in and custom models.
type ListModelsResponse struct {
	Models  []ModelInfo
	Default ModelID
}
