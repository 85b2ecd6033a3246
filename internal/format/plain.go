// Package format renders service events and results for the terminal.
package format

import (
	"fmt"
	"strings"

	"pkt.systems/uqlabs/internal/eventbus"
	"pkt.systems/uqlabs/schema"
)

// PlainRenderer formats bus events as plain text lines.
type PlainRenderer struct{}

// NewPlainRenderer returns a default plain-text renderer.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// FormatEvent converts a bus event into user-facing lines. Events that carry
// nothing worth showing return no lines.
func (p *PlainRenderer) FormatEvent(event eventbus.Event) ([]string, error) {
	switch event.Type {
	case eventbus.EventNotify:
		return formatNotify(event.Notify), nil
	case eventbus.EventJob:
		return formatJob(event.Job.Job), nil
	case eventbus.EventNotebook:
		return formatNotebook(event.Notebook), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", event.Type)
	}
}

func formatNotify(event schema.NotifyEvent) []string {
	if strings.TrimSpace(event.Message) == "" {
		return nil
	}
	level := string(event.Level)
	if level == "" {
		level = string(schema.NotifyInfo)
	}
	return markLines("["+level+"] ", splitLines(event.Message))
}

func formatJob(job schema.JobRecord) []string {
	if job.ID == "" {
		return nil
	}
	line := fmt.Sprintf("job %s: %s", job.ID, job.Status)
	if job.Backend != "" {
		line += fmt.Sprintf(" (%s)", job.Backend)
	}
	lines := []string{line}
	if job.Result != "" && job.Status.IsTerminal() {
		lines = append(lines, markLines("  ", splitLines(job.Result))...)
	}
	return lines
}

func formatNotebook(event schema.NotebookEvent) []string {
	switch event.Type {
	case schema.NotebookEventRunStarted:
		return []string{fmt.Sprintf("cell %s: running", event.CellID)}
	case schema.NotebookEventRunFinished:
		return []string{fmt.Sprintf("cell %s: finished", event.CellID)}
	default:
		return nil
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

func markLines(marker string, lines []string) []string {
	if marker == "" || len(lines) == 0 {
		return lines
	}
	marked := make([]string, 0, len(lines))
	for _, line := range lines {
		marked = append(marked, marker+line)
	}
	return marked
}
