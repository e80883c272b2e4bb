package vm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/events"
	"github.com/jbweber/gigas/internal/transaction"
)

// Create provisions a machine matching spec and returns its finalized state.
//
// The provider queues the work and answers with a transaction token; Create
// blocks until that transaction is terminal. An Errored or TimedOut outcome
// is returned as *ProvisionError. A NotFound outcome is treated as benign,
// because the machine may have finished provisioning out of band, so the
// current state is fetched either way.
//
// All requests issued here, including the final state fetch, share one
// operation and therefore one 401 retry budget.
func (s *Service) Create(ctx context.Context, spec Spec) (*VM, error) {
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	op := api.NewOperation("create")
	s.log.Info("creating virtual machine",
		zap.String("operation_id", op.ID),
		zap.String("hostname", spec.Hostname),
		zap.Int("memory_mb", spec.MemoryMB),
		zap.Int("cpus", spec.CPUCount),
		zap.Int("template_id", spec.TemplateID))

	var queued api.ProvisionResponse
	if err := s.client.PostForm(ctx, op, "/virtual_machine", spec.form(), &queued); err != nil {
		return nil, fmt.Errorf("failed to create virtual machine: %w", err)
	}

	s.log.Info("provisioning queued",
		zap.String("operation_id", op.ID),
		zap.String("transaction", queued.QueueToken.String()),
		zap.String("id", queued.Resource.ID.String()))

	outcome, err := s.waiter.Wait(ctx, op, queued.QueueToken)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case transaction.OutcomeComplete, transaction.OutcomeNotFound:
		// Machine should exist now; fetch its finalized state.
	default:
		return nil, &ProvisionError{Outcome: outcome}
	}

	m, err := s.infoWithOperation(ctx, op, queued.Resource.ID)
	if err != nil {
		return nil, err
	}

	s.publish(events.SubjectCreated, m)
	s.log.Info("virtual machine created",
		zap.String("operation_id", op.ID),
		zap.String("id", m.ID.String()),
		zap.Strings("ip_addresses", m.IPAddresses))

	return m, nil
}
