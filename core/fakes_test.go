package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/schema"
)

type fakeBackend struct {
	mu sync.Mutex

	runFn     func(ctx context.Context, code, language string) (backend.RunResult, error)
	prepareFn func(ctx context.Context, code string) (backend.PrepareResult, error)
	submitFn  func(ctx context.Context, req backend.SubmitRequest) ([]string, error)
	statusFn  func(ctx context.Context, jobID string) (backend.StatusResult, error)
	simFn     func(ctx context.Context, req backend.SimulationRequest) (backend.SimulationResult, error)
	chatFn    func(ctx context.Context, req backend.ChatRequest) (string, error)

	runs        []string
	prepares    []string
	statusCalls int
	simulations []backend.SimulationRequest
	chats       []backend.ChatRequest
}

func (f *fakeBackend) RunCode(ctx context.Context, code, language string) (backend.RunResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, code)
	fn := f.runFn
	f.mu.Unlock()
	if fn == nil {
		return backend.RunResult{Stdout: "ok"}, nil
	}
	return fn(ctx, code, language)
}

func (f *fakeBackend) PrepareEnv(ctx context.Context, code string) (backend.PrepareResult, error) {
	f.mu.Lock()
	f.prepares = append(f.prepares, code)
	fn := f.prepareFn
	f.mu.Unlock()
	if fn == nil {
		return backend.PrepareResult{Status: "ready"}, nil
	}
	return fn(ctx, code)
}

func (f *fakeBackend) SubmitIBM(ctx context.Context, req backend.SubmitRequest) ([]string, error) {
	if f.submitFn == nil {
		return []string{"job-1"}, nil
	}
	return f.submitFn(ctx, req)
}

func (f *fakeBackend) JobStatus(ctx context.Context, jobID string) (backend.StatusResult, error) {
	f.mu.Lock()
	f.statusCalls++
	fn := f.statusFn
	f.mu.Unlock()
	if fn == nil {
		return backend.StatusResult{Status: "running"}, nil
	}
	return fn(ctx, jobID)
}

func (f *fakeBackend) SimulationRun(ctx context.Context, req backend.SimulationRequest) (backend.SimulationResult, error) {
	f.mu.Lock()
	f.simulations = append(f.simulations, req)
	fn := f.simFn
	f.mu.Unlock()
	if fn == nil {
		return backend.SimulationResult{Choice: req.Mode}, nil
	}
	return fn(ctx, req)
}

func (f *fakeBackend) ListHardware(context.Context) ([]backend.HardwareBackend, error) {
	qubits := 127
	return []backend.HardwareBackend{{Name: "ibm_kyiv", NumQubits: &qubits, Status: "online"}}, nil
}

func (f *fakeBackend) Chat(ctx context.Context, req backend.ChatRequest) (string, error) {
	f.mu.Lock()
	f.chats = append(f.chats, req)
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return "hello back", nil
	}
	return fn(ctx, req)
}

func (f *fakeBackend) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeBackend) prepared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prepares...)
}

type recordingSink struct {
	mu        sync.Mutex
	notebooks []schema.NotebookEvent
	jobs      []schema.JobEvent
	notifies  []schema.NotifyEvent
}

func (r *recordingSink) OnNotebookEvent(event schema.NotebookEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notebooks = append(r.notebooks, event)
}

func (r *recordingSink) OnJobEvent(event schema.JobEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, event)
}

func (r *recordingSink) OnNotify(event schema.NotifyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifies = append(r.notifies, event)
}

func (r *recordingSink) notifications() []schema.NotifyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.NotifyEvent(nil), r.notifies...)
}

func newTestService(t *testing.T, cfg schema.ServiceConfig, deps ServiceDeps) Service {
	t.Helper()
	if cfg.StateDir == "" {
		cfg.StateDir = t.TempDir()
	}
	svc, err := NewService(cfg, deps)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func activeNotebook(t *testing.T, svc Service) schema.NotebookSnapshot {
	t.Helper()
	resp, err := svc.GetNotebook(context.Background(), schema.GetNotebookRequest{})
	if err != nil {
		t.Fatalf("get notebook: %v", err)
	}
	return resp.Notebook
}

func addCell(t *testing.T, svc Service, kind schema.CellKind, content string, language schema.Language) schema.Cell {
	t.Helper()
	ctx := context.Background()
	added, err := svc.AddCell(ctx, schema.AddCellRequest{Kind: kind})
	if err != nil {
		t.Fatalf("add cell: %v", err)
	}
	if language != "" {
		if _, err := svc.UpdateCellLanguage(ctx, schema.UpdateCellLanguageRequest{CellID: added.Cell.ID, Language: language}); err != nil {
			t.Fatalf("update language: %v", err)
		}
	}
	updated, err := svc.UpdateCellContent(ctx, schema.UpdateCellContentRequest{CellID: added.Cell.ID, Content: content})
	if err != nil {
		t.Fatalf("update content: %v", err)
	}
	return updated.Cell
}
