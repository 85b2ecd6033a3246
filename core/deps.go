package core

import (
	"context"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/settings"
)

// Backend is the subset of the execution service client the core uses.
type Backend interface {
	RunCode(ctx context.Context, code, language string) (backend.RunResult, error)
	PrepareEnv(ctx context.Context, code string) (backend.PrepareResult, error)
	SubmitIBM(ctx context.Context, req backend.SubmitRequest) ([]string, error)
	JobStatus(ctx context.Context, jobID string) (backend.StatusResult, error)
	SimulationRun(ctx context.Context, req backend.SimulationRequest) (backend.SimulationResult, error)
	ListHardware(ctx context.Context) ([]backend.HardwareBackend, error)
	Chat(ctx context.Context, req backend.ChatRequest) (string, error)
}

// ServiceDeps captures dependencies for the core service. Backend is required.
type ServiceDeps struct {
	Backend   Backend
	Settings  settings.Service
	EventSink EventSink
	Logger    pslog.Logger
	// Now overrides the clock used for job and save timestamps.
	Now func() time.Time
}
