// Package qasm reads OpenQASM 2 sources well enough to draw a local preview
// and compute circuit statistics before a cell is sent to the backend.
package qasm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyntax reports a statement that could not be parsed.
	ErrSyntax = errors.New("qasm syntax error")
	// ErrQubitRange reports a qubit index outside the declared registers.
	ErrQubitRange = errors.New("qubit index out of range")
)

// Gate is one operation applied to one or more qubits.
type Gate struct {
	Name   string
	Qubits []int
	Params []float64
	// Clbits is only set for measure.
	Clbits []int
}

func (g Gate) String() string {
	var b strings.Builder
	b.WriteString(g.Name)
	if len(g.Params) > 0 {
		b.WriteByte('(')
		for i, p := range g.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%.4g", p)
		}
		b.WriteByte(')')
	}
	for i, q := range g.Qubits {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "q[%d]", q)
	}
	return b.String()
}

func (g Gate) equalTarget(o Gate) bool {
	if g.Name != o.Name || len(g.Qubits) != len(o.Qubits) {
		return false
	}
	for i := range g.Qubits {
		if g.Qubits[i] != o.Qubits[i] {
			return false
		}
	}
	return true
}

// Circuit is a flat list of gates over a qubit and classical register.
type Circuit struct {
	NumQubits int
	NumClbits int
	Gates     []Gate
}

// Width is the number of wires needed to draw the circuit.
func (c Circuit) Width() int {
	n := c.NumQubits
	for _, g := range c.Gates {
		for _, q := range g.Qubits {
			if q+1 > n {
				n = q + 1
			}
		}
	}
	return n
}

// TwoQubitCount counts gates touching exactly two qubits.
func (c Circuit) TwoQubitCount() int {
	n := 0
	for _, g := range c.Gates {
		if len(g.Qubits) == 2 {
			n++
		}
	}
	return n
}

// Depth is the length of the critical path when every gate takes one step.
// Gates on qubits outside the register do not advance the clock.
func (c Circuit) Depth() int {
	if c.NumQubits == 0 {
		return 0
	}
	clock := make([]int, c.NumQubits)
	for _, g := range c.Gates {
		start := 0
		for _, q := range g.Qubits {
			if q < len(clock) && clock[q] > start {
				start = clock[q]
			}
		}
		for _, q := range g.Qubits {
			if q < len(clock) {
				clock[q] = start + 1
			}
		}
	}
	depth := 0
	for _, t := range clock {
		if t > depth {
			depth = t
		}
	}
	return depth
}

func (c Circuit) withGates(gates []Gate) Circuit {
	return Circuit{NumQubits: c.NumQubits, NumClbits: c.NumClbits, Gates: gates}
}
