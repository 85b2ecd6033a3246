package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/uqlabs/schema"
)

func TestStarterNotebookIsActive(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{DefaultNotebook: "Lab"}, ServiceDeps{Backend: &fakeBackend{}})
	nb := activeNotebook(t, svc)
	if !nb.Active || nb.Name != "Lab" {
		t.Fatalf("expected active starter notebook named Lab, got %+v", nb)
	}
	kinds := []schema.CellKind{}
	for _, c := range nb.Cells {
		kinds = append(kinds, c.Kind)
	}
	if diff := cmp.Diff([]schema.CellKind{schema.CellKindMarkdown, schema.CellKindCode}, kinds); diff != "" {
		t.Fatalf("starter cells mismatch (-want +got):\n%s", diff)
	}
	if nb.Unsaved {
		t.Fatalf("starter notebook should not be unsaved")
	}
}

func TestAddCellsPreservesOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	before := len(activeNotebook(t, svc).Cells)

	code, err := svc.AddCell(ctx, schema.AddCellRequest{Kind: schema.CellKindCode})
	if err != nil {
		t.Fatalf("add code cell: %v", err)
	}
	md, err := svc.AddCell(ctx, schema.AddCellRequest{Kind: schema.CellKindMarkdown})
	if err != nil {
		t.Fatalf("add markdown cell: %v", err)
	}

	nb := activeNotebook(t, svc)
	if len(nb.Cells) != before+2 {
		t.Fatalf("expected %d cells, got %d", before+2, len(nb.Cells))
	}
	if nb.Cells[before].ID != code.Cell.ID || nb.Cells[before+1].ID != md.Cell.ID {
		t.Fatalf("expected code cell before markdown cell")
	}
	if code.Cell.Language != schema.LanguageAuto || md.Cell.Language != "" {
		t.Fatalf("unexpected default languages %q / %q", code.Cell.Language, md.Cell.Language)
	}
	if code.Cell.Content != "" || !nb.Unsaved {
		t.Fatalf("expected empty content and unsaved notebook")
	}
}

func TestAddCellRejectsUnknownKind(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	_, err := svc.AddCell(context.Background(), schema.AddCellRequest{Kind: "raw"})
	if !errors.Is(err, schema.ErrInvalidCellKind) {
		t.Fatalf("expected ErrInvalidCellKind, got %v", err)
	}
}

func TestDeleteCellMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	before := activeNotebook(t, svc)
	resp, err := svc.DeleteCell(ctx, schema.DeleteCellRequest{CellID: "missing"})
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if resp.Deleted {
		t.Fatalf("expected no deletion")
	}
	if diff := cmp.Diff(before, activeNotebook(t, svc)); diff != "" {
		t.Fatalf("notebook changed (-want +got):\n%s", diff)
	}

	target := before.Cells[0].ID
	if resp, err := svc.DeleteCell(ctx, schema.DeleteCellRequest{CellID: target}); err != nil || !resp.Deleted {
		t.Fatalf("delete existing: %v (%v)", resp.Deleted, err)
	}
	if _, ok := activeNotebook(t, svc).Cell(target); ok {
		t.Fatalf("expected cell to be gone")
	}
}

func TestMutationsMarkUnsavedAndSaveClears(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{
		Backend:   &fakeBackend{},
		EventSink: sink,
		Now:       func() time.Time { return fixed },
	})
	cellID := activeNotebook(t, svc).Cells[1].ID

	if _, err := svc.ToggleSkip(ctx, schema.ToggleSkipRequest{CellID: cellID}); err != nil {
		t.Fatalf("toggle skip: %v", err)
	}
	if !activeNotebook(t, svc).Unsaved {
		t.Fatalf("expected unsaved after toggle")
	}
	saved, err := svc.SaveNotebook(ctx, schema.SaveNotebookRequest{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Notebook.Unsaved || saved.Notebook.SavedAt == nil || !saved.Notebook.SavedAt.Equal(fixed) {
		t.Fatalf("unexpected saved notebook %+v", saved.Notebook)
	}
	if _, err := svc.UpdateCellLanguage(ctx, schema.UpdateCellLanguageRequest{CellID: cellID, Language: schema.LanguageQiskit}); err != nil {
		t.Fatalf("update language: %v", err)
	}
	nb := activeNotebook(t, svc)
	if !nb.Unsaved {
		t.Fatalf("expected unsaved after language change")
	}
	cell, _ := nb.Cell(cellID)
	if cell.Language != schema.LanguageQiskit || !cell.Skipped {
		t.Fatalf("unexpected cell %+v", cell)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var types []schema.NotebookEventType
	for _, ev := range sink.notebooks {
		types = append(types, ev.Type)
	}
	want := []schema.NotebookEventType{schema.NotebookEventCellUpdated, schema.NotebookEventSaved, schema.NotebookEventCellUpdated}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateUnknownCell(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	_, err := svc.UpdateCellContent(context.Background(), schema.UpdateCellContentRequest{CellID: "nope", Content: "x"})
	if !errors.Is(err, schema.ErrCellNotFound) {
		t.Fatalf("expected ErrCellNotFound, got %v", err)
	}
}

func TestNotebookActivation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, schema.ServiceConfig{}, ServiceDeps{Backend: &fakeBackend{}})
	first := activeNotebook(t, svc)
	created, err := svc.CreateNotebook(ctx, schema.CreateNotebookRequest{Name: "Bell states"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Notebook.Active {
		t.Fatalf("second notebook must not become active on create")
	}
	if _, err := svc.ActivateNotebook(ctx, schema.ActivateNotebookRequest{NotebookID: created.Notebook.ID}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	list, err := svc.ListNotebooks(ctx, schema.ListNotebooksRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Notebooks) != 2 || list.Active != created.Notebook.ID {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Notebooks[0].ID != first.ID || list.Notebooks[0].Active || !list.Notebooks[1].Active {
		t.Fatalf("expected exactly the second notebook active")
	}
	if _, err := svc.ActivateNotebook(ctx, schema.ActivateNotebookRequest{NotebookID: "missing"}); !errors.Is(err, schema.ErrNotebookNotFound) {
		t.Fatalf("expected ErrNotebookNotFound, got %v", err)
	}
}
