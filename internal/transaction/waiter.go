// Package transaction converts the provider's asynchronous transactions
// into synchronous bounded waits.
//
// Mutating calls (create, delete) return a queue token immediately; the
// actual work happens later on the provider side. Waiter polls the
// transaction status resource at a fixed interval until the transaction
// reaches a terminal state or the attempt bound is exhausted. Completion
// times are long and predictable, so the polling is deliberately plain:
// fixed interval, no backoff, no jitter.
package transaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/metrics"
)

// Outcome is the terminal classification of a polled transaction.
type Outcome string

const (
	// OutcomeComplete means the provider finished the transaction.
	OutcomeComplete Outcome = "complete"

	// OutcomeNotFound means the provider does not know the transaction.
	// Callers generally treat this as benign: the work may have finished
	// and been reaped, or happened out of band.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeErrored means the provider reported a failure.
	OutcomeErrored Outcome = "errored"

	// OutcomeTimedOut means the attempt bound was exhausted while the
	// transaction was still pending.
	OutcomeTimedOut Outcome = "timed_out"

	// OutcomeCancelled means the caller's context was cancelled during
	// the wait.
	OutcomeCancelled Outcome = "cancelled"
)

const (
	// DefaultInterval is the pause between status polls.
	DefaultInterval = 5 * time.Second

	// DefaultMaxAttempts bounds the number of status polls per wait.
	DefaultMaxAttempts = 24

	// transactionNotFound is the provider's error string for an unknown
	// transaction id.
	transactionNotFound = "Transaction not found"

	statusComplete = "complete"
)

// StatusClient fetches transaction status documents.
//
// In production this is satisfied by *api.Session.
// In tests, this is satisfied by mock implementations.
type StatusClient interface {
	Get(ctx context.Context, op *api.Operation, path string, out any) error
}

// Waiter polls transactions until they reach a terminal outcome.
type Waiter struct {
	client      StatusClient
	interval    time.Duration
	maxAttempts int
	log         *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMaxAttempts overrides the poll bound.
func WithMaxAttempts(n int) Option {
	return func(w *Waiter) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(w *Waiter) {
		if l != nil {
			w.log = l
		}
	}
}

// WithMetrics attaches poll metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Waiter) {
		w.metrics = m
	}
}

// NewWaiter creates a waiter with the default five second interval and 24
// attempt bound.
func NewWaiter(client StatusClient, opts ...Option) *Waiter {
	w := &Waiter{
		client:      client,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls the status of the given transaction until it is terminal.
//
// Each status document is classified:
//   - error "Transaction not found" terminates the wait with OutcomeNotFound
//   - any other error terminates it with OutcomeErrored
//   - status "complete" terminates it with OutcomeComplete
//   - anything else counts one attempt; once maxAttempts polls have been
//     spent the wait ends with OutcomeTimedOut, otherwise it sleeps for the
//     interval and polls again
//
// A transport failure aborts the wait and is returned to the caller with no
// outcome. Cancelling ctx during the sleep returns OutcomeCancelled together
// with the context's error.
func (w *Waiter) Wait(ctx context.Context, op *api.Operation, id api.ID) (Outcome, error) {
	path := fmt.Sprintf("/transaction/%s/status", id)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for attempt := 0; ; {
		var st api.TransactionStatus
		if err := w.client.Get(ctx, op, path, &st); err != nil {
			return "", fmt.Errorf("failed to poll transaction %s: %w", id, err)
		}
		w.metrics.TransactionPolled()

		if outcome, terminal := classify(st); terminal {
			w.finish(op, id, outcome, attempt+1)
			return outcome, nil
		}

		attempt++
		if attempt >= w.maxAttempts {
			w.finish(op, id, OutcomeTimedOut, attempt)
			return OutcomeTimedOut, nil
		}

		w.log.Debug("transaction pending",
			zap.String("operation", op.Name),
			zap.String("transaction", id.String()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", w.maxAttempts))

		select {
		case <-ctx.Done():
			w.finish(op, id, OutcomeCancelled, attempt)
			return OutcomeCancelled, ctx.Err()
		case <-ticker.C:
		}
	}
}

// classify maps one status document to a terminal outcome, or reports that
// the transaction is still pending.
func classify(st api.TransactionStatus) (Outcome, bool) {
	switch {
	case st.Error == transactionNotFound:
		return OutcomeNotFound, true
	case st.Error != "":
		return OutcomeErrored, true
	case st.Status == statusComplete:
		return OutcomeComplete, true
	default:
		return "", false
	}
}

func (w *Waiter) finish(op *api.Operation, id api.ID, outcome Outcome, polls int) {
	w.metrics.TransactionFinished(string(outcome))
	w.log.Info("transaction finished",
		zap.String("operation", op.Name),
		zap.String("operation_id", op.ID),
		zap.String("transaction", id.String()),
		zap.String("outcome", string(outcome)),
		zap.Int("polls", polls))
}
