package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotebookNotFound indicates a requested notebook could not be found.
	ErrNotebookNotFound = errors.New("notebook not found")
	// ErrNoNotebooks indicates no notebook exists yet.
	ErrNoNotebooks = errors.New("no notebooks")
	// ErrCellNotFound indicates a requested cell could not be found.
	ErrCellNotFound = errors.New("cell not found")
	// ErrCellBusy indicates the cell already has a run in flight.
	ErrCellBusy = errors.New("cell is running")
	// ErrInvalidCellKind indicates an unsupported cell kind.
	ErrInvalidCellKind = errors.New("invalid cell kind")
	// ErrInvalidLanguage indicates an unsupported language tag.
	ErrInvalidLanguage = errors.New("invalid language")
	// ErrNotRunnable indicates the cell cannot be executed (markdown or empty).
	ErrNotRunnable = errors.New("cell is not runnable")
	// ErrInvalidMode indicates an unsupported simulation mode.
	ErrInvalidMode = errors.New("invalid simulation mode")
	// ErrJobNotFound indicates a requested job could not be found.
	ErrJobNotFound = errors.New("job not found")
	// ErrChatNotFound indicates a requested chat could not be found.
	ErrChatNotFound = errors.New("chat not found")
	// ErrEmptyMessage indicates the chat message was empty.
	ErrEmptyMessage = errors.New("empty message")
	// ErrInvalidModel indicates an invalid model identifier.
	ErrInvalidModel = errors.New("invalid model")
	// ErrServiceClosed indicates the service has been shut down.
	ErrServiceClosed = errors.New("service closed")
)
