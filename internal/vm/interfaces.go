package vm

import (
	"context"
	"net/url"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/transaction"
)

// apiClient defines the session operations needed for VM management.
//
// In production, this is satisfied by *api.Session.
// In tests, this is satisfied by mock implementations.
type apiClient interface {
	// Get issues an authorized GET and decodes the JSON response into out
	Get(ctx context.Context, op *api.Operation, path string, out any) error

	// PostForm issues an authorized form POST and decodes the response
	PostForm(ctx context.Context, op *api.Operation, path string, form url.Values, out any) error

	// Delete issues an authorized DELETE and decodes the response
	Delete(ctx context.Context, op *api.Operation, path string, out any) error
}

// txWaiter blocks until a provider transaction reaches a terminal outcome.
//
// In production, this is satisfied by *transaction.Waiter.
// In tests, this is satisfied by mock implementations.
type txWaiter interface {
	Wait(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error)
}

// eventPublisher emits lifecycle events after successful operations.
//
// In production, this is satisfied by *events.Publisher. It is optional:
// a Service without one simply publishes nothing.
type eventPublisher interface {
	Publish(subject string, payload any) error
}
