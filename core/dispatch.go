package core

import (
	"context"
	"errors"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

type runRoute int

const (
	routeRunCode runRoute = iota
	routeSimulation
)

func (r runRoute) String() string {
	if r == routeSimulation {
		return "simulation"
	}
	return "run-code"
}

// runPlan is the backend call prepared for one cell run.
type runPlan struct {
	route      runRoute
	code       string
	language   schema.Language
	simulation backend.SimulationRequest
}

func (s *service) planRun(content string, language schema.Language, req schema.RunCellRequest) (runPlan, error) {
	if language != schema.LanguageQASM || req.Context != schema.RunContextSimulation {
		return runPlan{route: routeRunCode, code: content, language: language}, nil
	}
	mode := s.cfg.DefaultMode
	if req.Mode != "" {
		parsed, err := schema.ParseSimulationMode(string(req.Mode))
		if err != nil {
			return runPlan{}, err
		}
		mode = parsed
	}
	shots := req.Shots
	if shots <= 0 {
		shots = s.cfg.DefaultShots
	}
	sim := backend.SimulationRequest{QASM: content, Mode: string(mode), Shots: shots}
	if req.Noise.Enabled {
		enabled := true
		strength := req.Noise.Strength
		metrics := req.Noise.Metrics
		sim.NoiseEnabled = &enabled
		sim.NoiseStrength = &strength
		sim.NoiseMetrics = &metrics
	}
	return runPlan{route: routeSimulation, code: content, language: language, simulation: sim}, nil
}

func (s *service) execute(ctx context.Context, plan runPlan) (string, error) {
	switch plan.route {
	case routeSimulation:
		res, err := s.backend.SimulationRun(ctx, plan.simulation)
		if err != nil {
			return "", err
		}
		return FormatSimulationOutput(res), nil
	default:
		res, err := s.backend.RunCode(ctx, plan.code, string(plan.language))
		if err != nil {
			return "", err
		}
		return FormatRunOutput(res), nil
	}
}

// RunCell executes one code cell. Backend failures do not fail the call: the
// message lands in the cell output and in RunCellResponse.Error.
func (s *service) RunCell(ctx context.Context, req schema.RunCellRequest) (schema.RunCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.RunCellResponse{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.RunCellResponse{}, schema.ErrServiceClosed
	}
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.RunCellResponse{}, err
	}
	c, _ := nb.find(req.CellID)
	if c == nil {
		s.mu.Unlock()
		return schema.RunCellResponse{}, schema.ErrCellNotFound
	}
	if c.kind != schema.CellKindCode || strings.TrimSpace(c.content) == "" {
		s.mu.Unlock()
		return schema.RunCellResponse{}, schema.ErrNotRunnable
	}
	if c.running {
		s.mu.Unlock()
		return schema.RunCellResponse{}, schema.ErrCellBusy
	}
	plan, err := s.planRun(c.content, c.language, req)
	if err != nil {
		s.mu.Unlock()
		return schema.RunCellResponse{}, err
	}
	c.running = true
	c.output = ""
	c.hasOutput = false
	nbID, cellID := nb.id, c.id
	started := c.snapshot()
	s.mu.Unlock()

	log := logx.WithNotebookCell(ctx, nbID, cellID)
	ctx = logx.ContextWithNotebookCellLogger(ctx, log, nbID, cellID)
	log.Info("service cell run start", "route", plan.route.String(), "language", plan.language)
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventRunStarted, NotebookID: nbID, CellID: cellID, Cell: &started})

	output, runErr := s.execute(ctx, plan)
	var message string
	if runErr != nil {
		message = backend.Message(runErr)
		output = errorOutput(runErr)
	}

	finished, err := s.finishRun(nbID, cellID, output)
	if err != nil {
		log.Warn("service cell run result dropped", "err", err)
		return schema.RunCellResponse{}, err
	}
	if runErr != nil {
		log.Warn("service cell run failed", "err", runErr)
		s.notify(schema.NotifyError, message, nbID, cellID)
	} else {
		log.Info("service cell run ok", "output_bytes", len(output))
	}
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventRunFinished, NotebookID: nbID, CellID: cellID, Cell: &finished})
	return schema.RunCellResponse{Cell: finished, Error: message}, nil
}

// finishRun stores the output unless the cell was deleted mid-run.
func (s *service) finishRun(nbID schema.NotebookID, cellID schema.CellID, output string) (schema.Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[nbID]
	if !ok {
		return schema.Cell{}, schema.ErrNotebookNotFound
	}
	c, _ := nb.find(cellID)
	if c == nil {
		return schema.Cell{}, schema.ErrCellNotFound
	}
	c.running = false
	c.hasRun = true
	c.output = output
	c.hasOutput = true
	return c.snapshot(), nil
}

// RunAll runs the runnable cells of a notebook one after another. A failed
// cell does not stop the run; a canceled context does.
func (s *service) RunAll(ctx context.Context, req schema.RunAllRequest) (schema.RunAllResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.RunAllResponse{}, err
	}
	s.mu.Lock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.RunAllResponse{}, err
	}
	nbID := nb.id
	var queue []schema.CellID
	skipped := 0
	for _, c := range nb.cells {
		if c.kind != schema.CellKindCode {
			continue
		}
		if c.skipped || strings.TrimSpace(c.content) == "" {
			skipped++
			continue
		}
		queue = append(queue, c.id)
	}
	s.mu.Unlock()

	log := logx.WithNotebook(ctx, nbID)
	log.Info("service run all start", "cells", len(queue), "skipped", skipped)
	resp := schema.RunAllResponse{Skipped: skipped}
	var runErr error
	for _, cellID := range queue {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		out, err := s.RunCell(ctx, schema.RunCellRequest{
			NotebookID: nbID,
			CellID:     cellID,
			Context:    req.Context,
			Mode:       req.Mode,
			Shots:      req.Shots,
			Noise:      req.Noise,
		})
		switch {
		case err == nil && out.Error == "":
			resp.Ran++
		case err == nil:
			resp.Failed++
		case errors.Is(err, schema.ErrCellNotFound), errors.Is(err, schema.ErrNotRunnable):
			resp.Skipped++
		case errors.Is(err, schema.ErrCellBusy):
			resp.Failed++
		default:
			runErr = err
		}
		if runErr != nil {
			break
		}
	}

	s.mu.Lock()
	if current, ok := s.notebooks[nbID]; ok {
		resp.Notebook = s.snapshotLocked(current)
	}
	s.mu.Unlock()
	logRunAll(log, resp, runErr)
	return resp, runErr
}

func logRunAll(log pslog.Logger, resp schema.RunAllResponse, err error) {
	if err != nil {
		log.Warn("service run all stopped", "ran", resp.Ran, "failed", resp.Failed, "skipped", resp.Skipped, "err", err)
		return
	}
	log.Info("service run all done", "ran", resp.Ran, "failed", resp.Failed, "skipped", resp.Skipped)
}
