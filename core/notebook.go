package core

import (
	"fmt"
	"time"

	"pkt.systems/uqlabs/schema"
)

const starterIntro = `# %s

Markdown cells hold notes. Code cells run on the execution service:
pick a language or leave it on auto, then run the cell.`

const starterCode = `print("Hello from UQuantum Labs")`

type cell struct {
	id        schema.CellID
	kind      schema.CellKind
	content   string
	language  schema.Language
	output    string
	hasOutput bool
	running   bool
	hasRun    bool
	skipped   bool
}

func (c *cell) snapshot() schema.Cell {
	return schema.Cell{
		ID:        c.id,
		Kind:      c.kind,
		Content:   c.content,
		Language:  c.language,
		Output:    c.output,
		HasOutput: c.hasOutput,
		Running:   c.running,
		HasRun:    c.hasRun,
		Skipped:   c.skipped,
	}
}

type notebook struct {
	id      schema.NotebookID
	name    string
	cells   []*cell
	unsaved bool
	savedAt *time.Time
}

func newCell(kind schema.CellKind) *cell {
	return &cell{
		id:       schema.CellID(newID()),
		kind:     kind,
		language: schema.DefaultLanguage(kind),
	}
}

func newStarterNotebook(name string) *notebook {
	intro := newCell(schema.CellKindMarkdown)
	intro.content = fmt.Sprintf(starterIntro, name)
	code := newCell(schema.CellKindCode)
	code.content = starterCode
	code.language = schema.LanguagePython
	return &notebook{
		id:    schema.NotebookID(newID()),
		name:  name,
		cells: []*cell{intro, code},
	}
}

func (n *notebook) find(id schema.CellID) (*cell, int) {
	for i, c := range n.cells {
		if c.id == id {
			return c, i
		}
	}
	return nil, -1
}

func (n *notebook) snapshot(active bool) schema.NotebookSnapshot {
	cells := make([]schema.Cell, 0, len(n.cells))
	for _, c := range n.cells {
		cells = append(cells, c.snapshot())
	}
	var savedAt *time.Time
	if n.savedAt != nil {
		t := *n.savedAt
		savedAt = &t
	}
	return schema.NotebookSnapshot{
		ID:      n.id,
		Name:    n.name,
		Cells:   cells,
		Unsaved: n.unsaved,
		SavedAt: savedAt,
		Active:  active,
	}
}
