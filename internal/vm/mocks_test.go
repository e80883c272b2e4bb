package vm

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/transaction"
)

// mockAPIClient is a mock implementation of the apiClient interface for
// testing. It also satisfies transaction.StatusClient, so tests can wire a
// real transaction.Waiter over it and drive full poll sequences through the
// statusScript field.
type mockAPIClient struct {
	mu sync.Mutex

	// Configurable behavior
	getFunc      func(ctx context.Context, op *api.Operation, path string, out any) error
	postFormFunc func(ctx context.Context, op *api.Operation, path string, form url.Values, out any) error
	deleteFunc   func(ctx context.Context, op *api.Operation, path string, out any) error

	// Transaction status script served on /transaction/ paths, in order;
	// the last entry repeats once the script is exhausted.
	statusScript []api.TransactionStatus
	statusIndex  int

	// Call tracking
	getCalls      []string
	postFormCalls []string
	deleteCalls   []string
	postForms     []url.Values
	ops           []*api.Operation
}

// newMockAPIClient creates a mock client preloaded with a healthy machine:
// create and delete queue transaction 42 for machine 99, transactions
// complete on the first poll, and machine 99 reports two interfaces whose
// addresses appear in the account list among a foreign one.
func newMockAPIClient() *mockAPIClient {
	m := &mockAPIClient{
		statusScript: []api.TransactionStatus{{Status: "complete"}},
	}

	m.getFunc = func(ctx context.Context, op *api.Operation, path string, out any) error {
		if strings.HasPrefix(path, "/transaction/") {
			st := m.statusScript[len(m.statusScript)-1]
			if m.statusIndex < len(m.statusScript) {
				st = m.statusScript[m.statusIndex]
			}
			m.statusIndex++
			*out.(*api.TransactionStatus) = st
			return nil
		}

		switch path {
		case "/virtual_machine/99":
			*out.(*map[string]any) = map[string]any{
				"id":               float64(99),
				"hostname":         "test",
				"label":            "test-label",
				"memory":           float64(512),
				"cpus":             float64(1),
				"template_id":      float64(70),
				"state":            "running",
				"booted":           true,
				"operating_system": "linux",
			}
		case "/virtual_machine/99/network_interfaces":
			*out.(*[]api.NetworkInterface) = []api.NetworkInterface{
				{ID: "1"},
				{ID: "2"},
			}
		case "/ip_addresses":
			*out.(*[]api.IPAddress) = []api.IPAddress{
				{InterfaceID: "2", Address: "10.0.0.2"},
				{InterfaceID: "1", Address: "10.0.0.1"},
				{InterfaceID: "3", Address: "10.0.0.3"},
			}
		}
		return nil
	}

	// Default: create queues transaction 42 for machine 99
	m.postFormFunc = func(ctx context.Context, op *api.Operation, path string, form url.Values, out any) error {
		*out.(*api.ProvisionResponse) = api.ProvisionResponse{
			QueueToken: "42",
			Resource:   api.Resource{ID: "99"},
		}
		return nil
	}

	// Default: delete queues transaction 42
	m.deleteFunc = func(ctx context.Context, op *api.Operation, path string, out any) error {
		*out.(*api.ProvisionResponse) = api.ProvisionResponse{QueueToken: "42"}
		return nil
	}

	return m
}

func (m *mockAPIClient) Get(ctx context.Context, op *api.Operation, path string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, path)
	m.ops = append(m.ops, op)
	return m.getFunc(ctx, op, path, out)
}

func (m *mockAPIClient) PostForm(ctx context.Context, op *api.Operation, path string, form url.Values, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postFormCalls = append(m.postFormCalls, path)
	m.postForms = append(m.postForms, form)
	m.ops = append(m.ops, op)
	return m.postFormFunc(ctx, op, path, form, out)
}

func (m *mockAPIClient) Delete(ctx context.Context, op *api.Operation, path string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, path)
	m.ops = append(m.ops, op)
	return m.deleteFunc(ctx, op, path, out)
}

// pollCalls returns the transaction status polls issued so far.
func (m *mockAPIClient) pollCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var polls []string
	for _, path := range m.getCalls {
		if strings.HasPrefix(path, "/transaction/") {
			polls = append(polls, path)
		}
	}
	return polls
}

// mockWaiter is a mock implementation of the txWaiter interface for tests
// that inject outcomes directly instead of scripting poll sequences.
type mockWaiter struct {
	mu sync.Mutex

	// Configurable behavior
	waitFunc func(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error)

	// Call tracking
	waitCalls []api.ID
	ops       []*api.Operation
}

// newMockWaiter creates a mock waiter whose transactions complete.
func newMockWaiter() *mockWaiter {
	return &mockWaiter{
		waitFunc: func(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error) {
			return transaction.OutcomeComplete, nil
		},
	}
}

func (m *mockWaiter) Wait(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitCalls = append(m.waitCalls, id)
	m.ops = append(m.ops, op)
	return m.waitFunc(ctx, op, id)
}

// mockPublisher is a mock implementation of the eventPublisher interface.
type mockPublisher struct {
	mu sync.Mutex

	// Configurable behavior
	publishFunc func(subject string, payload any) error

	// Call tracking
	publishCalls []string
	payloads     []any
}

// newMockPublisher creates a mock publisher that accepts every event.
func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		publishFunc: func(subject string, payload any) error {
			return nil
		},
	}
}

func (m *mockPublisher) Publish(subject string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishCalls = append(m.publishCalls, subject)
	m.payloads = append(m.payloads, payload)
	return m.publishFunc(subject, payload)
}
