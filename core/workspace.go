package core

import (
	"context"
	"strings"

	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

func (s *service) CreateNotebook(ctx context.Context, req schema.CreateNotebookRequest) (schema.CreateNotebookResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.CreateNotebookResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = s.cfg.DefaultNotebook
	}
	nb := newStarterNotebook(name)
	s.mu.Lock()
	s.notebooks[nb.id] = nb
	s.order = append(s.order, nb.id)
	if s.active == "" {
		s.active = nb.id
	}
	snap := s.snapshotLocked(nb)
	s.mu.Unlock()
	logx.WithNotebook(ctx, nb.id).Info("service notebook create ok", "name", name)
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCreated, NotebookID: nb.id})
	return schema.CreateNotebookResponse{Notebook: snap}, nil
}

func (s *service) ListNotebooks(ctx context.Context, _ schema.ListNotebooksRequest) (schema.ListNotebooksResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ListNotebooksResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.NotebookSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.snapshotLocked(s.notebooks[id]))
	}
	return schema.ListNotebooksResponse{Notebooks: out, Active: s.active}, nil
}

func (s *service) ActivateNotebook(ctx context.Context, req schema.ActivateNotebookRequest) (schema.ActivateNotebookResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ActivateNotebookResponse{}, err
	}
	if req.NotebookID == "" {
		return schema.ActivateNotebookResponse{}, schema.ErrInvalidRequest
	}
	s.mu.Lock()
	nb, ok := s.notebooks[req.NotebookID]
	if !ok {
		s.mu.Unlock()
		return schema.ActivateNotebookResponse{}, schema.ErrNotebookNotFound
	}
	s.active = nb.id
	snap := s.snapshotLocked(nb)
	s.mu.Unlock()
	logx.WithNotebook(ctx, nb.id).Debug("service notebook activate ok")
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventActivated, NotebookID: nb.id, Unsaved: snap.Unsaved})
	return schema.ActivateNotebookResponse{Notebook: snap}, nil
}

func (s *service) GetNotebook(ctx context.Context, req schema.GetNotebookRequest) (schema.GetNotebookResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.GetNotebookResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		return schema.GetNotebookResponse{}, err
	}
	return schema.GetNotebookResponse{Notebook: s.snapshotLocked(nb)}, nil
}

func (s *service) SaveNotebook(ctx context.Context, req schema.SaveNotebookRequest) (schema.SaveNotebookResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.SaveNotebookResponse{}, err
	}
	s.mu.Lock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.SaveNotebookResponse{}, err
	}
	now := s.now()
	nb.unsaved = false
	nb.savedAt = &now
	snap := s.snapshotLocked(nb)
	s.mu.Unlock()
	logx.WithNotebook(ctx, nb.id).Info("service notebook save ok")
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventSaved, NotebookID: nb.id})
	return schema.SaveNotebookResponse{Notebook: snap}, nil
}

func (s *service) AddCell(ctx context.Context, req schema.AddCellRequest) (schema.AddCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.AddCellResponse{}, err
	}
	kind, err := schema.ParseCellKind(string(req.Kind))
	if err != nil {
		return schema.AddCellResponse{}, err
	}
	s.mu.Lock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.AddCellResponse{}, err
	}
	c := newCell(kind)
	nb.cells = append(nb.cells, c)
	nb.unsaved = true
	snap := c.snapshot()
	s.mu.Unlock()
	logx.WithNotebookCell(ctx, nb.id, c.id).Debug("service cell add ok", "kind", kind)
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCellAdded, NotebookID: nb.id, CellID: c.id, Cell: &snap, Unsaved: true})
	return schema.AddCellResponse{Cell: snap}, nil
}

func (s *service) DeleteCell(ctx context.Context, req schema.DeleteCellRequest) (schema.DeleteCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.DeleteCellResponse{}, err
	}
	s.mu.Lock()
	nb, err := s.notebookLocked(req.NotebookID)
	if err != nil {
		s.mu.Unlock()
		return schema.DeleteCellResponse{}, err
	}
	_, idx := nb.find(req.CellID)
	if idx < 0 {
		s.mu.Unlock()
		return schema.DeleteCellResponse{Deleted: false}, nil
	}
	nb.cells = append(nb.cells[:idx], nb.cells[idx+1:]...)
	nb.unsaved = true
	s.mu.Unlock()
	s.sched.Cancel(prewarmKey(req.CellID))
	logx.WithNotebookCell(ctx, nb.id, req.CellID).Debug("service cell delete ok")
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCellDeleted, NotebookID: nb.id, CellID: req.CellID, Unsaved: true})
	return schema.DeleteCellResponse{Deleted: true}, nil
}

func (s *service) UpdateCellContent(ctx context.Context, req schema.UpdateCellContentRequest) (schema.UpdateCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.UpdateCellResponse{}, err
	}
	var nbID schema.NotebookID
	snap, err := s.mutateCell(req.NotebookID, req.CellID, func(nb *notebook, c *cell) {
		nbID = nb.id
		c.content = req.Content
	})
	if err != nil {
		return schema.UpdateCellResponse{}, err
	}
	if snap.Kind == schema.CellKindCode {
		s.schedulePrewarm(ctx, nbID, snap.ID, snap.Content)
	}
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCellUpdated, NotebookID: nbID, CellID: snap.ID, Cell: &snap, Unsaved: true})
	return schema.UpdateCellResponse{Cell: snap}, nil
}

// UpdateCellLanguage stores the tag as given; transports validate it with
// schema.ParseLanguage before calling.
func (s *service) UpdateCellLanguage(ctx context.Context, req schema.UpdateCellLanguageRequest) (schema.UpdateCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.UpdateCellResponse{}, err
	}
	var nbID schema.NotebookID
	snap, err := s.mutateCell(req.NotebookID, req.CellID, func(nb *notebook, c *cell) {
		nbID = nb.id
		c.language = req.Language
	})
	if err != nil {
		return schema.UpdateCellResponse{}, err
	}
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCellUpdated, NotebookID: nbID, CellID: snap.ID, Cell: &snap, Unsaved: true})
	return schema.UpdateCellResponse{Cell: snap}, nil
}

func (s *service) ToggleSkip(ctx context.Context, req schema.ToggleSkipRequest) (schema.UpdateCellResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.UpdateCellResponse{}, err
	}
	var nbID schema.NotebookID
	snap, err := s.mutateCell(req.NotebookID, req.CellID, func(nb *notebook, c *cell) {
		nbID = nb.id
		c.skipped = !c.skipped
	})
	if err != nil {
		return schema.UpdateCellResponse{}, err
	}
	logx.WithNotebookCell(ctx, nbID, snap.ID).Debug("service cell skip toggled", "skipped", snap.Skipped)
	s.emitNotebook(schema.NotebookEvent{Type: schema.NotebookEventCellUpdated, NotebookID: nbID, CellID: snap.ID, Cell: &snap, Unsaved: true})
	return schema.UpdateCellResponse{Cell: snap}, nil
}

// mutateCell applies fn under the lock and marks the notebook unsaved.
func (s *service) mutateCell(notebookID schema.NotebookID, cellID schema.CellID, fn func(*notebook, *cell)) (schema.Cell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.notebookLocked(notebookID)
	if err != nil {
		return schema.Cell{}, err
	}
	c, _ := nb.find(cellID)
	if c == nil {
		return schema.Cell{}, schema.ErrCellNotFound
	}
	fn(nb, c)
	nb.unsaved = true
	return c.snapshot(), nil
}
