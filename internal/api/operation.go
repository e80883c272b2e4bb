package api

import "github.com/google/uuid"

// Operation carries per-operation request state: a name and correlation id
// for logging, and the 401 retry budget shared by every request the
// operation issues. Constructing a new Operation resets the budget.
type Operation struct {
	// Name identifies the top-level operation, e.g. "create".
	Name string

	// ID is a correlation id attached to log entries for every request
	// issued under this operation.
	ID string

	authRetries int
}

// NewOperation creates an Operation with a fresh correlation id and an
// unconsumed auth retry budget.
func NewOperation(name string) *Operation {
	return &Operation{
		Name: name,
		ID:   uuid.New().String(),
	}
}
