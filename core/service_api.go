package core

import (
	"context"

	"pkt.systems/uqlabs/schema"
)

// Service is the transport-agnostic API for notebooks, cell execution, hardware jobs and the assistant.
type Service interface {
	CreateNotebook(ctx context.Context, req schema.CreateNotebookRequest) (schema.CreateNotebookResponse, error)
	ListNotebooks(ctx context.Context, req schema.ListNotebooksRequest) (schema.ListNotebooksResponse, error)
	ActivateNotebook(ctx context.Context, req schema.ActivateNotebookRequest) (schema.ActivateNotebookResponse, error)
	GetNotebook(ctx context.Context, req schema.GetNotebookRequest) (schema.GetNotebookResponse, error)
	SaveNotebook(ctx context.Context, req schema.SaveNotebookRequest) (schema.SaveNotebookResponse, error)

	AddCell(ctx context.Context, req schema.AddCellRequest) (schema.AddCellResponse, error)
	DeleteCell(ctx context.Context, req schema.DeleteCellRequest) (schema.DeleteCellResponse, error)
	UpdateCellContent(ctx context.Context, req schema.UpdateCellContentRequest) (schema.UpdateCellResponse, error)
	UpdateCellLanguage(ctx context.Context, req schema.UpdateCellLanguageRequest) (schema.UpdateCellResponse, error)
	ToggleSkip(ctx context.Context, req schema.ToggleSkipRequest) (schema.UpdateCellResponse, error)

	RunCell(ctx context.Context, req schema.RunCellRequest) (schema.RunCellResponse, error)
	RunAll(ctx context.Context, req schema.RunAllRequest) (schema.RunAllResponse, error)
	PreviewCell(ctx context.Context, req schema.PreviewCellRequest) (schema.PreviewCellResponse, error)
	SetPrewarm(ctx context.Context, req schema.SetPrewarmRequest) (schema.SetPrewarmResponse, error)

	SubmitJob(ctx context.Context, req schema.SubmitJobRequest) (schema.SubmitJobResponse, error)
	ListJobs(ctx context.Context, req schema.ListJobsRequest) (schema.ListJobsResponse, error)
	GetJob(ctx context.Context, req schema.GetJobRequest) (schema.GetJobResponse, error)
	ListBackends(ctx context.Context, req schema.ListBackendsRequest) (schema.ListBackendsResponse, error)

	NewChat(ctx context.Context, req schema.NewChatRequest) (schema.NewChatResponse, error)
	ListChats(ctx context.Context, req schema.ListChatsRequest) (schema.ListChatsResponse, error)
	GetChat(ctx context.Context, req schema.GetChatRequest) (schema.GetChatResponse, error)
	DeleteChat(ctx context.Context, req schema.DeleteChatRequest) (schema.DeleteChatResponse, error)
	SendMessage(ctx context.Context, req schema.SendMessageRequest) (schema.SendMessageResponse, error)
	ListModels(ctx context.Context, req schema.ListModelsRequest) (schema.ListModelsResponse, error)

	// Close cancels every pending poll and pre-warm timer and waits for
	// running callbacks to return.
	Close() error
}
