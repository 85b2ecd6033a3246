package core

import (
	"context"
	"fmt"

	"pkt.systems/uqlabs/internal/qasm"
	"pkt.systems/uqlabs/schema"
)

// PreviewCell parses a qasm cell locally and reports its diagram, metrics
// and a transpilation onto the default demo backend. No backend call is made.
func (s *service) PreviewCell(ctx context.Context, req schema.PreviewCellRequest) (schema.PreviewCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.PreviewCellResponse{}, err
	}
	s.mu.Lock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.PreviewCellResponse{}, err
	}
	c, _ := nb.find(req.CellID)
	if c == nil {
		s.mu.Unlock()
		return schema.PreviewCellResponse{}, schema.ErrCellNotFound
	}
	kind, language, content := c.kind, c.language, c.content
	s.mu.Unlock()
	if kind != schema.CellKindCode || language != schema.LanguageQASM {
		return schema.PreviewCellResponse{}, fmt.Errorf("%w: preview needs a qasm cell", schema.ErrInvalidRequest)
	}
	return PreviewSource(content)
}

// PreviewSource builds a preview for raw OpenQASM source.
func PreviewSource(src string) (schema.PreviewCellResponse, error) {
	circuit, err := qasm.Parse(src)
	if err != nil {
		return schema.PreviewCellResponse{}, fmt.Errorf("%w: %w", schema.ErrInvalidRequest, err)
	}
	target := qasm.DefaultBackend
	res := qasm.Transpile(circuit, target, qasm.DefaultPasses()...)
	return schema.PreviewCellResponse{
		Preview:       qasm.Preview(circuit),
		Qubits:        circuit.Width(),
		Gates:         len(circuit.Gates),
		Depth:         circuit.Depth(),
		TwoQubitGates: circuit.TwoQubitCount(),
		Transpiled: schema.CircuitStats{
			Backend:        target.Name,
			OriginalDepth:  res.Stats.OriginalDepth,
			FinalDepth:     res.Stats.FinalDepth,
			OriginalGates:  res.Stats.OriginalGates,
			FinalGates:     res.Stats.FinalGates,
			DepthReduction: res.Stats.DepthReduction,
			GateReduction:  res.Stats.GateReduction,
		},
	}, nil
}
