// Package vm provides high-level VM lifecycle operations against the
// provider API.
//
// This package orchestrates the lower-level components (api session,
// transaction waiter) into the three operations callers care about:
//   - Create: provision a machine from a Spec and wait for it to finish
//   - Info: fetch a machine's attributes and derived address list
//   - Delete: destroy a machine and wait for the provider to confirm
//
// Asynchronous Provisioning:
//
// Create and Delete are asynchronous on the provider side: the response
// carries a queue token, and the work completes later. Both operations
// block on the transaction waiter until a terminal outcome. A failed or
// timed-out transaction is surfaced as *ProvisionError or *DeletionError
// carrying the outcome; a not-found transaction is treated as benign,
// because the work may have completed out of band before the first poll.
//
// Error Handling:
//
// Operations perform no cleanup on failure: the provider owns the machine
// lifecycle, and a failed transaction leaves nothing client-side to undo.
// A machine id the provider does not know is reported as *NotFoundError.
// Transport failures propagate from the api package unchanged.
//
// Handles:
//
// Delete invalidates the *VM handle it was given. Using an invalidated
// handle is a caller bug and fails fast with ErrDeleted.
package vm
