package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/uqlabs/internal/backend"
)

const (
	noOutputMessage       = "Execution complete (no output)."
	noOutputExitMessage   = "Execution finished with exit code %d (no text output)."
	errorOutputPrefix     = "Error: "
	prettyJSONIndentation = "  "
)

// FormatRunOutput normalizes a run-code result into the text shown under a
// cell.
func FormatRunOutput(res backend.RunResult) string {
	var parts []string
	if res.Stdout != "" {
		parts = append(parts, res.Stdout)
	}
	if res.Stderr != "" {
		parts = append(parts, "stderr:\n"+res.Stderr)
	}
	if counts, ok := prettyObject(res.Counts); ok {
		parts = append(parts, "counts:\n"+counts)
	}
	out := strings.Join(parts, "\n")
	if strings.TrimSpace(out) != "" {
		return out
	}
	if res.ExitCode == nil || *res.ExitCode == 0 {
		return noOutputMessage
	}
	return fmt.Sprintf(noOutputExitMessage, *res.ExitCode)
}

// FormatSimulationOutput renders a transpiler simulation result.
func FormatSimulationOutput(res backend.SimulationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "choice: %s\n", res.Choice)
	fmt.Fprintf(&b, "depth: %d\n", res.Depth)
	fmt.Fprintf(&b, "two_qubit_count: %d\n", res.TwoQubitCount)
	fmt.Fprintf(&b, "wall_time_s: %s\n", strconv.FormatFloat(res.WallTimeS, 'f', -1, 64))
	fmt.Fprintf(&b, "exec_time_s: %s", strconv.FormatFloat(res.ExecTimeS, 'f', -1, 64))
	if counts, ok := prettyObject(res.Counts); ok {
		b.WriteString("\ncounts:\n")
		b.WriteString(counts)
	}
	if len(res.BlochVectors) > 0 {
		b.WriteString("\nbloch vectors:")
		for i, v := range res.BlochVectors {
			fmt.Fprintf(&b, "\n  q[%d]: (%s, %s, %s)", i, formatComponent(v[0]), formatComponent(v[1]), formatComponent(v[2]))
		}
	}
	if noise, ok := prettyObject(res.Noise); ok {
		b.WriteString("\nnoise:\n")
		b.WriteString(noise)
	}
	return b.String()
}

func errorOutput(err error) string {
	return errorOutputPrefix + backend.Message(err)
}

func formatComponent(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func prettyObject(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", prettyJSONIndentation); err != nil {
		return "", false
	}
	return buf.String(), true
}
