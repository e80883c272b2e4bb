package vm

import (
	"errors"
	"fmt"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/transaction"
)

// ErrDeleted is returned when a VM handle is used after a successful delete.
// Hitting it is a caller bug, not a provider condition.
var ErrDeleted = errors.New("virtual machine handle has been deleted")

// ProvisionError reports a create whose transaction ended without a usable
// machine.
type ProvisionError struct {
	Outcome transaction.Outcome
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning failed: transaction %s", e.Outcome)
}

// DeletionError reports a delete whose transaction did not confirm.
type DeletionError struct {
	Outcome transaction.Outcome
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("deletion failed: transaction %s", e.Outcome)
}

// NotFoundError reports a machine id the provider does not know.
type NotFoundError struct {
	ID api.ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("virtual machine %s not found", e.ID)
}
