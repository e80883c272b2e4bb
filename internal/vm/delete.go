package vm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/events"
	"github.com/jbweber/gigas/internal/transaction"
)

// Delete destroys the machine and waits for the provider to confirm.
//
// An Errored or TimedOut transaction outcome is returned as *DeletionError;
// the machine may or may not still exist in that case, and the handle stays
// valid so the caller can retry. On success the handle is invalidated and
// any later use of it returns ErrDeleted.
func (s *Service) Delete(ctx context.Context, m *VM) error {
	if m == nil {
		return fmt.Errorf("no virtual machine given")
	}
	if m.Deleted() {
		return ErrDeleted
	}

	op := api.NewOperation("delete")
	s.log.Info("deleting virtual machine",
		zap.String("operation_id", op.ID),
		zap.String("id", m.ID.String()))

	var queued api.ProvisionResponse
	if err := s.client.Delete(ctx, op, "/virtual_machine/"+m.ID.String(), &queued); err != nil {
		return fmt.Errorf("failed to delete virtual machine %s: %w", m.ID, err)
	}

	outcome, err := s.waiter.Wait(ctx, op, queued.QueueToken)
	if err != nil {
		return err
	}

	switch outcome {
	case transaction.OutcomeErrored, transaction.OutcomeTimedOut:
		return &DeletionError{Outcome: outcome}
	}

	m.invalidate()
	s.publish(events.SubjectDeleted, m)
	s.log.Info("virtual machine deleted",
		zap.String("operation_id", op.ID),
		zap.String("id", m.ID.String()))

	return nil
}
