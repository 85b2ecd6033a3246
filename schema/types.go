package schema

// NotebookID identifies a notebook.
type NotebookID string

// CellID identifies a cell within a notebook.
type CellID string

// JobID is the backend-issued identifier of an asynchronous job.
type JobID string

// ChatID identifies an assistant chat.
type ChatID string

// MessageID identifies a chat message.
type MessageID string

// ModelID identifies an LLM model.
type ModelID string

// CellKind distinguishes code cells from markdown cells.
type CellKind string

const (
	// CellKindCode is an executable cell.
	CellKindCode CellKind = "code"
	// CellKindMarkdown is a prose cell.
	CellKindMarkdown CellKind = "markdown"
)

// Language tags the runtime a code cell is executed with.
type Language string

const (
	// LanguageAuto lets the backend detect the language.
	LanguageAuto Language = "auto"
	// LanguagePython runs plain python.
	LanguagePython Language = "python"
	// LanguageCPP compiles and runs C++.
	LanguageCPP Language = "cpp"
	// LanguageQASM is OpenQASM source.
	LanguageQASM Language = "qasm"
	// LanguageQiskit is python using qiskit.
	LanguageQiskit Language = "qiskit"
	// LanguageBraket is python using the braket SDK.
	LanguageBraket Language = "braket"
	// LanguageBash is a shell script.
	LanguageBash Language = "bash"
)

// Languages lists every supported language tag.
var Languages = []Language{
	LanguageAuto,
	LanguagePython,
	LanguageCPP,
	LanguageQASM,
	LanguageQiskit,
	LanguageBraket,
	LanguageBash,
}

// DefaultLanguage returns the language a new cell of the given kind starts with.
func DefaultLanguage(kind CellKind) Language {
	if kind == CellKindCode {
		return LanguageAuto
	}
	return ""
}

// RunContext names the view a run was issued from.
type RunContext string

const (
	// RunContextNotebook is the generic notebook page.
	RunContextNotebook RunContext = "notebook"
	// RunContextSimulation is the simulation workspace.
	RunContextSimulation RunContext = "simulation"
)

// SimulationMode selects the transpiler strategy.
type SimulationMode string

const (
	// SimulationModeStatic uses the static transpiler pipeline.
	SimulationModeStatic SimulationMode = "static"
	// SimulationModeSafeRL uses the safe reinforcement-learning pipeline.
	SimulationModeSafeRL SimulationMode = "safe-rl"
)

// ChatMode selects the assistant persona.
type ChatMode string

const (
	// ChatModeGeneral is the default assistant mode.
	ChatModeGeneral ChatMode = "general"
	// ChatModeCode focuses on code help.
	ChatModeCode ChatMode = "code"
	// ChatModeResearch focuses on explanations and references.
	ChatModeResearch ChatMode = "research"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks messages typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks model replies.
	RoleAssistant Role = "assistant"
)
