package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"pkt.systems/uqlabs/schema"
)

const defaultWrap = 80

// TermRenderer styles results for a terminal. Markdown goes through glamour,
// headings and status words through lipgloss. Color is decided per writer, so
// output to a pipe or buffer stays plain.
type TermRenderer struct {
	md      *glamour.TermRenderer
	title   lipgloss.Style
	label   lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	outline lipgloss.Style
}

// NewTermRenderer builds a renderer for w. Plain disables glamour's styling.
func NewTermRenderer(w io.Writer, plain bool) (*TermRenderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if plain {
		styleOpt = glamour.WithStandardStyle("notty")
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(defaultWrap))
	if err != nil {
		return nil, err
	}
	r := lipgloss.NewRenderer(w)
	return &TermRenderer{
		md:      md,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Bold(true),
		good:    r.NewStyle().Foreground(lipgloss.Color("10")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("9")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		outline: r.NewStyle().PaddingLeft(2),
	}, nil
}

// Markdown renders markdown text. Rendering failures fall back to the raw text.
func (t *TermRenderer) Markdown(text string) string {
	out, err := t.md.Render(text)
	if err != nil {
		return text
	}
	return out
}

// Title renders a section heading.
func (t *TermRenderer) Title(text string) string {
	return t.title.Render(text)
}

// CellResult renders a cell header followed by its output.
func (t *TermRenderer) CellResult(name string, cell schema.Cell, errMsg string) string {
	status := t.good.Render("ok")
	switch {
	case errMsg != "":
		status = t.bad.Render("failed")
	case cell.Skipped:
		status = t.muted.Render("skipped")
	}
	header := fmt.Sprintf("%s [%s] %s", t.Title(name), cell.Language, status)
	if !cell.HasOutput {
		return header
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, t.outline.Render(cell.Output))
}

// Summary renders the outcome of a run-all.
func (t *TermRenderer) Summary(resp schema.RunAllResponse) string {
	failed := strconv.Itoa(resp.Failed)
	if resp.Failed > 0 {
		failed = t.bad.Render(failed)
	}
	return fmt.Sprintf("%s ran %d, failed %s, skipped %d", t.label.Render("summary:"), resp.Ran, failed, resp.Skipped)
}

// Preview renders a circuit preview with its metrics.
func (t *TermRenderer) Preview(resp schema.PreviewCellResponse) string {
	var b strings.Builder
	b.WriteString(resp.Preview)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d  %s %d\n",
		t.label.Render("qubits"), resp.Qubits,
		t.label.Render("gates"), resp.Gates,
		t.label.Render("depth"), resp.Depth,
		t.label.Render("two-qubit"), resp.TwoQubitGates)
	stats := resp.Transpiled
	fmt.Fprintf(&b, "%s %s: depth %d -> %d, gates %d -> %d",
		t.label.Render("transpiled"), stats.Backend,
		stats.OriginalDepth, stats.FinalDepth, stats.OriginalGates, stats.FinalGates)
	return b.String()
}

// Jobs renders one line per job record.
func (t *TermRenderer) Jobs(jobs []schema.JobRecord) string {
	lines := make([]string, 0, len(jobs))
	for _, job := range jobs {
		for _, line := range formatJob(job) {
			lines = append(lines, t.status(job.Status, line))
		}
	}
	return strings.Join(lines, "\n")
}

func (t *TermRenderer) status(status schema.JobStatus, line string) string {
	switch status {
	case schema.JobCompleted, schema.JobDone:
		return t.good.Render(line)
	case schema.JobError, schema.JobFailed, schema.JobCancelled:
		return t.bad.Render(line)
	default:
		return line
	}
}

// Backends renders a hardware backend listing.
func (t *TermRenderer) Backends(backends []schema.HardwareBackend) string {
	if len(backends) == 0 {
		return t.muted.Render("no backends available")
	}
	lines := make([]string, 0, len(backends)+1)
	lines = append(lines, t.label.Render(fmt.Sprintf("%-24s %7s %-10s %s", "NAME", "QUBITS", "STATUS", "PENDING")))
	for _, be := range backends {
		status := be.Status
		if status == "" {
			status = "-"
			if be.Operational != nil {
				status = "offline"
				if *be.Operational {
					status = "online"
				}
			}
		}
		if be.Simulator {
			status += "*"
		}
		lines = append(lines, fmt.Sprintf("%-24s %7s %-10s %s", be.Name, optionalInt(be.NumQubits), status, optionalInt(be.PendingJobs)))
	}
	return strings.Join(lines, "\n")
}

// Models renders the model list, marking the default.
func (t *TermRenderer) Models(resp schema.ListModelsResponse) string {
	lines := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		line := fmt.Sprintf("%s  %s", m.ID, t.muted.Render(m.Name))
		if m.Custom {
			line += " (custom)"
		}
		if m.ID == resp.Default {
			line = t.label.Render("* ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
