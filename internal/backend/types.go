package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RunResult is the validated payload of /execution/run-code.
type RunResult struct {
	Stdout string
	Stderr string
	// Counts holds the counts object as received. Nil when absent or not an object.
	Counts json.RawMessage
	// ExitCode is nil when the backend omitted it.
	ExitCode *int
}

// PrepareResult is the validated payload of /execution/prepare-env.
type PrepareResult struct {
	Status    string
	Installed []string
}

// Ready reports whether the backend considers the environment usable.
func (r PrepareResult) Ready() bool {
	switch strings.ToLower(r.Status) {
	case "success", "ready":
		return true
	default:
		return false
	}
}

// SubmitRequest is the body of /execution/ibm/run.
type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Backend  string `json:"backend"`
	Shots    int    `json:"shots"`
	Jobs     int    `json:"jobs"`
}

// StatusResult is the validated payload of /execution/status/{id}.
type StatusResult struct {
	Status string
	// Result is the job result rendered as text: strings verbatim, anything
	// else as compact JSON.
	Result    string
	HasResult bool
}

// SimulationRequest is the body of /transpile/simulation/run.
type SimulationRequest struct {
	QASM          string   `json:"qasm"`
	Mode          string   `json:"mode"`
	Shots         int      `json:"shots"`
	NoiseEnabled  *bool    `json:"noise_enabled,omitempty"`
	NoiseStrength *float64 `json:"noise_strength,omitempty"`
	NoiseMetrics  *bool    `json:"noise_metrics,omitempty"`
}

// SimulationResult is the validated payload of /transpile/simulation/run.
type SimulationResult struct {
	Choice        string
	Depth         int
	TwoQubitCount int
	WallTimeS     float64
	ExecTimeS     float64
	Counts        json.RawMessage
	BlochVectors  [][3]float64
	Noise         json.RawMessage
}

// HardwareBackend is one entry of /hardware/list.
type HardwareBackend struct {
	Name        string
	NumQubits   *int
	Simulator   bool
	Operational *bool
	Status      string
	PendingJobs *int
}

// ChatMessage is one turn sent to the LLM endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of /llm/chat.
type ChatRequest struct {
	Messages []ChatMessage     `json:"messages"`
	Model    string            `json:"model"`
	Mode     string            `json:"mode"`
	APIKeys  map[string]string `json:"api_keys"`
}

type runEnvelope struct {
	Result *struct {
		Stdout   *string         `json:"stdout"`
		Stderr   *string         `json:"stderr"`
		Counts   json.RawMessage `json:"counts"`
		ExitCode *int            `json:"exit_code"`
	} `json:"result"`
}

func (e runEnvelope) validate() (RunResult, error) {
	if e.Result == nil {
		return RunResult{}, fmt.Errorf("%w: missing result", ErrMalformedResponse)
	}
	out := RunResult{ExitCode: e.Result.ExitCode}
	if e.Result.Stdout != nil {
		out.Stdout = *e.Result.Stdout
	}
	if e.Result.Stderr != nil {
		out.Stderr = *e.Result.Stderr
	}
	if isObject(e.Result.Counts) {
		out.Counts = e.Result.Counts
	}
	return out, nil
}

type prepareEnvelope struct {
	Status    *string  `json:"status"`
	Installed []string `json:"installed"`
}

func (e prepareEnvelope) validate() (PrepareResult, error) {
	if e.Status == nil {
		return PrepareResult{}, fmt.Errorf("%w: missing status", ErrMalformedResponse)
	}
	return PrepareResult{Status: *e.Status, Installed: e.Installed}, nil
}

type submitEnvelope struct {
	JobIDs *[]string `json:"job_ids"`
}

func (e submitEnvelope) validate() ([]string, error) {
	if e.JobIDs == nil {
		return nil, fmt.Errorf("%w: missing job_ids", ErrMalformedResponse)
	}
	ids := make([]string, 0, len(*e.JobIDs))
	for _, id := range *e.JobIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty job id", ErrMalformedResponse)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type statusEnvelope struct {
	Status *string         `json:"status"`
	Result json.RawMessage `json:"result"`
}

func (e statusEnvelope) validate() (StatusResult, error) {
	if e.Status == nil {
		return StatusResult{}, fmt.Errorf("%w: missing status", ErrMalformedResponse)
	}
	out := StatusResult{Status: *e.Status}
	raw := bytes.TrimSpace(e.Result)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		out.Result = text
		out.HasResult = true
		return out, nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return StatusResult{}, fmt.Errorf("%w: result: %v", ErrMalformedResponse, err)
	}
	out.Result = compact.String()
	out.HasResult = true
	return out, nil
}

type simulationEnvelope struct {
	Result *struct {
		Choice        *string         `json:"choice"`
		Depth         int             `json:"depth"`
		TwoQubitCount int             `json:"two_qubit_count"`
		WallTimeS     float64         `json:"wall_time_s"`
		ExecTimeS     float64         `json:"exec_time_s"`
		Counts        json.RawMessage `json:"counts"`
		State         *struct {
			BlochVectors [][]float64 `json:"bloch_vectors"`
		} `json:"state"`
		Noise json.RawMessage `json:"noise"`
	} `json:"result"`
}

func (e simulationEnvelope) validate() (SimulationResult, error) {
	r := e.Result
	if r == nil {
		return SimulationResult{}, fmt.Errorf("%w: missing result", ErrMalformedResponse)
	}
	if r.Choice == nil {
		return SimulationResult{}, fmt.Errorf("%w: missing choice", ErrMalformedResponse)
	}
	out := SimulationResult{
		Choice:        *r.Choice,
		Depth:         r.Depth,
		TwoQubitCount: r.TwoQubitCount,
		WallTimeS:     r.WallTimeS,
		ExecTimeS:     r.ExecTimeS,
	}
	if isObject(r.Counts) {
		out.Counts = r.Counts
	}
	if isObject(r.Noise) {
		out.Noise = r.Noise
	}
	if r.State != nil {
		for i, vec := range r.State.BlochVectors {
			if len(vec) != 3 {
				return SimulationResult{}, fmt.Errorf("%w: bloch vector %d has %d components", ErrMalformedResponse, i, len(vec))
			}
			out.BlochVectors = append(out.BlochVectors, [3]float64{vec[0], vec[1], vec[2]})
		}
	}
	return out, nil
}

type hardwareEnvelope struct {
	Backends *[]struct {
		Name        string `json:"name"`
		NumQubits   *int   `json:"num_qubits"`
		Simulator   *bool  `json:"simulator"`
		Operational *bool  `json:"operational"`
		Status      string `json:"status"`
		PendingJobs *int   `json:"pending_jobs"`
	} `json:"backends"`
}

func (e hardwareEnvelope) validate() ([]HardwareBackend, error) {
	if e.Backends == nil {
		return nil, fmt.Errorf("%w: missing backends", ErrMalformedResponse)
	}
	out := make([]HardwareBackend, 0, len(*e.Backends))
	for i, b := range *e.Backends {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: backend %d has no name", ErrMalformedResponse, i)
		}
		entry := HardwareBackend{
			Name:        name,
			NumQubits:   b.NumQubits,
			Operational: b.Operational,
			Status:      b.Status,
			PendingJobs: b.PendingJobs,
		}
		if b.Simulator != nil {
			entry.Simulator = *b.Simulator
		}
		out = append(out, entry)
	}
	return out, nil
}

type chatEnvelope struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (e chatEnvelope) validate() (string, error) {
	if len(e.Choices) > 0 && e.Choices[0].Message != nil && e.Choices[0].Message.Content != nil {
		return *e.Choices[0].Message.Content, nil
	}
	if text, ok := rawText(e.Result); ok {
		return text, nil
	}
	if text, ok := rawText(e.Error); ok {
		return "", fmt.Errorf("%w: %s", ErrAssistant, text)
	}
	return "", fmt.Errorf("%w: no reply in chat response", ErrMalformedResponse)
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// rawText renders a JSON value as text. Strings are unquoted; null and absent
// values report false.
func rawText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err == nil && msg.Message != "" {
		return msg.Message, true
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", false
	}
	return compact.String(), true
}
