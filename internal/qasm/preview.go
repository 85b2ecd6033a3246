package qasm

import (
	"fmt"
	"strings"
)

// Preview draws c as ASCII art, one wire per qubit. Gates are packed into
// columns as early as their qubits allow; multi-qubit gates reserve every
// wire they span so the connector stays readable.
func Preview(c Circuit) string {
	width := c.Width()
	if width == 0 {
		return ""
	}
	type column struct {
		cells map[int]string
		size  int
	}
	var columns []*column
	next := make([]int, width)
	for _, g := range c.Gates {
		lo, hi := span(g)
		col := 0
		for q := lo; q <= hi; q++ {
			if next[q] > col {
				col = next[q]
			}
		}
		for len(columns) <= col {
			columns = append(columns, &column{cells: map[int]string{}})
		}
		for q := lo; q <= hi; q++ {
			next[q] = col + 1
		}
		target := columns[col]
		for q, label := range gateLabels(g, lo, hi) {
			target.cells[q] = label
			if len(label) > target.size {
				target.size = len(label)
			}
		}
	}

	prefixes := make([]string, width)
	pad := 0
	for q := range prefixes {
		prefixes[q] = fmt.Sprintf("q[%d]: ", q)
		if len(prefixes[q]) > pad {
			pad = len(prefixes[q])
		}
	}
	var b strings.Builder
	for q := 0; q < width; q++ {
		b.WriteString(prefixes[q])
		b.WriteString(strings.Repeat(" ", pad-len(prefixes[q])))
		b.WriteByte('-')
		for _, col := range columns {
			b.WriteString(center(col.cells[q], col.size))
			b.WriteByte('-')
		}
		if q < width-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func span(g Gate) (int, int) {
	lo, hi := g.Qubits[0], g.Qubits[0]
	for _, q := range g.Qubits[1:] {
		if q < lo {
			lo = q
		}
		if q > hi {
			hi = q
		}
	}
	return lo, hi
}

func gateLabels(g Gate, lo, hi int) map[int]string {
	labels := map[int]string{}
	for q := lo + 1; q < hi; q++ {
		labels[q] = "|"
	}
	switch {
	case g.Name == "measure":
		labels[g.Qubits[0]] = "M"
	case g.Name == "cx" && len(g.Qubits) == 2:
		labels[g.Qubits[0]] = "*"
		labels[g.Qubits[1]] = "X"
	case g.Name == "cz" && len(g.Qubits) == 2:
		labels[g.Qubits[0]] = "*"
		labels[g.Qubits[1]] = "*"
	case g.Name == "swap" && len(g.Qubits) == 2:
		labels[g.Qubits[0]] = "x"
		labels[g.Qubits[1]] = "x"
	default:
		name := strings.ToUpper(g.Name)
		if len(g.Params) > 0 {
			parts := make([]string, len(g.Params))
			for i, p := range g.Params {
				parts[i] = fmt.Sprintf("%.3g", p)
			}
			name += "(" + strings.Join(parts, ",") + ")"
		}
		for _, q := range g.Qubits {
			labels[q] = name
		}
	}
	return labels
}

// center pads label with wire dashes to width plus one dash on each side.
func center(label string, width int) string {
	total := width + 2
	left := (total - len(label)) / 2
	right := total - len(label) - left
	return strings.Repeat("-", left) + label + strings.Repeat("-", right)
}
