package queue

import (
	"context"
)

type (
	// Handler processes envelopes of a single task type. Consumers route
	// each taken envelope to the handler registered under its Type field,
	// falling back to the default processor when no handler matches.
	Handler interface {
		// Name returns the task type this handler is registered for.
		Name() string
		// Handle processes the envelope. The envelope is already removed
		// from the store; a returned error is logged, not redelivered.
		Handle(ctx context.Context, e *Envelope) error
	}

	// HandlerFunc is the processing function wrapped by NewHandler.
	HandlerFunc func(ctx context.Context, e *Envelope) error
)

// NewHandler creates a Handler for the given task type.
func NewHandler(taskType string, fn HandlerFunc) Handler {
	return &typedHandler{name: taskType, fn: fn}
}

type typedHandler struct {
	name string
	fn   HandlerFunc
}

func (h *typedHandler) Name() string {
	return h.name
}

func (h *typedHandler) Handle(ctx context.Context, e *Envelope) error {
	return h.fn(ctx, e)
}
