package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/scheduler"
	"pkt.systems/uqlabs/internal/settings"
	"pkt.systems/uqlabs/schema"
)

// service implements the core service behavior.
type service struct {
	cfg      schema.ServiceConfig
	backend  Backend
	settings settings.Service
	sink     EventSink
	sched    *scheduler.Scheduler
	logger   pslog.Logger
	now      func() time.Time
	prepares singleflight.Group

	mu        sync.Mutex
	notebooks map[schema.NotebookID]*notebook
	order     []schema.NotebookID
	active    schema.NotebookID
	jobs      map[schema.JobID]*schema.JobRecord
	jobOrder  []schema.JobID
	chats     map[schema.ChatID]*schema.Chat
	chatOrder []schema.ChatID
	prewarm   bool
	closed    bool
}

// NewService constructs the core service implementation. The service starts
// with one starter notebook, which is active.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Backend == nil {
		return nil, errors.New("backend client is required")
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewMemory(settings.Settings{})
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	s := &service{
		cfg:       cfg,
		backend:   deps.Backend,
		settings:  deps.Settings,
		sink:      deps.EventSink,
		sched:     scheduler.New(logger),
		logger:    logger,
		now:       now,
		notebooks: make(map[schema.NotebookID]*notebook),
		jobs:      make(map[schema.JobID]*schema.JobRecord),
		chats:     make(map[schema.ChatID]*schema.Chat),
		prewarm:   cfg.PrewarmEnabled,
	}
	nb := newStarterNotebook(cfg.DefaultNotebook)
	s.notebooks[nb.id] = nb
	s.order = append(s.order, nb.id)
	s.active = nb.id
	return s, nil
}

func (s *service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.sched.Close()
	s.logger.Info("service closed")
	return nil
}

func (s *service) emitNotebook(event schema.NotebookEvent) {
	if s.sink != nil {
		s.sink.OnNotebookEvent(event)
	}
}

func (s *service) emitJob(job schema.JobRecord) {
	if s.sink != nil {
		s.sink.OnJobEvent(schema.JobEvent{Job: job})
	}
}

func (s *service) notify(level schema.NotifyLevel, message string, notebookID schema.NotebookID, cellID schema.CellID) {
	if s.sink != nil {
		s.sink.OnNotify(schema.NotifyEvent{Level: level, Message: message, NotebookID: notebookID, CellID: cellID})
	}
}

// notebookLocked resolves id, or the active notebook when id is empty.
func (s *service) notebookLocked(id schema.NotebookID) (*notebook, error) {
	if id == "" {
		id = s.active
	}
	if id == "" {
		return nil, schema.ErrNoNotebooks
	}
	nb, ok := s.notebooks[id]
	if !ok {
		return nil, schema.ErrNotebookNotFound
	}
	return nb, nil
}

func (s *service) snapshotLocked(nb *notebook) schema.NotebookSnapshot {
	return nb.snapshot(nb.id == s.active)
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	return nil
}
