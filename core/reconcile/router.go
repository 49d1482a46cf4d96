package reconcile

import (
	"context"
	"fmt"
	"sort"
)

// Handler folds one payload into storage.
type Handler func(ctx context.Context, payload Payload) error

// Router dispatches deliveries to the handler registered for their queue.
type Router struct {
	handlers map[string]Handler
}

// NewRouter copies table and verifies that every queue in queues has a handler.
// When queues is empty, every queue in the table is consumed.
func NewRouter(table map[string]Handler, queues ...string) (*Router, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty routing table", ErrUnregisteredQueue)
	}

	handlers := make(map[string]Handler, len(table))
	for name, h := range table {
		if h == nil {
			return nil, fmt.Errorf("%w: %s has a nil handler", ErrUnregisteredQueue, name)
		}
		handlers[name] = h
	}

	if len(queues) > 0 {
		selected := make(map[string]Handler, len(queues))
		for _, name := range queues {
			h, ok := handlers[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnregisteredQueue, name)
			}
			selected[name] = h
		}
		handlers = selected
	}

	return &Router{handlers: handlers}, nil
}

// Dispatch runs the handler for queue.
func (r *Router) Dispatch(ctx context.Context, queue string, payload Payload) error {
	h, ok := r.handlers[queue]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredQueue, queue)
	}
	if payload == nil {
		return h(ctx, Payload{})
	}
	// Handlers get their own copy so the caller's message stays as received
	return h(ctx, payload.Clone())
}

// Queues returns the routed queue names in sorted order.
func (r *Router) Queues() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handles reports whether queue is routed.
func (r *Router) Handles(queue string) bool {
	_, ok := r.handlers[queue]
	return ok
}
