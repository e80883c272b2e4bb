package vm

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/events"
	"github.com/jbweber/gigas/internal/transaction"
)

func testSpec() Spec {
	return Spec{
		MemoryMB:          512,
		CPUCount:          1,
		Hostname:          "test",
		Label:             "test-label",
		PrimaryDiskSizeGB: 20,
		SwapDiskSizeGB:    1,
		TemplateID:        70,
	}
}

// fastWaiter wires a real transaction.Waiter over the mock client so tests
// exercise full poll sequences.
func fastWaiter(client *mockAPIClient) *transaction.Waiter {
	return transaction.NewWaiter(client, transaction.WithInterval(time.Millisecond))
}

func TestCreate_Success(t *testing.T) {
	client := newMockAPIClient()
	client.statusScript = []api.TransactionStatus{
		{Status: "pending"},
		{Status: "pending"},
		{Status: "complete"},
	}
	publisher := newMockPublisher()
	svc := NewService(client, fastWaiter(client), WithEvents(publisher))

	m, err := svc.Create(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The provisioning request carries the provider's wire field names.
	if len(client.postFormCalls) != 1 || client.postFormCalls[0] != "/virtual_machine" {
		t.Fatalf("Expected one POST to /virtual_machine, got %v", client.postFormCalls)
	}
	form := client.postForms[0]
	if got := form.Get("memory"); got != "512" {
		t.Errorf("Expected memory '512', got %q", got)
	}
	if got := form.Get("cpus"); got != "1" {
		t.Errorf("Expected cpus '1', got %q", got)
	}
	if got := form.Get("hostname"); got != "test" {
		t.Errorf("Expected hostname 'test', got %q", got)
	}
	if got := form.Get("label"); got != "test-label" {
		t.Errorf("Expected label 'test-label', got %q", got)
	}
	if got := form.Get("primary_disk_size"); got != "20" {
		t.Errorf("Expected primary_disk_size '20', got %q", got)
	}
	if got := form.Get("swap_disk_size"); got != "1" {
		t.Errorf("Expected swap_disk_size '1', got %q", got)
	}
	if got := form.Get("template_id"); got != "70" {
		t.Errorf("Expected template_id '70', got %q", got)
	}

	// The queued transaction was polled to completion.
	polls := client.pollCalls()
	if len(polls) != 3 {
		t.Errorf("Expected 3 status polls, got %d", len(polls))
	}
	if len(polls) > 0 && polls[0] != "/transaction/42/status" {
		t.Errorf("Expected poll path '/transaction/42/status', got %q", polls[0])
	}

	// The finalized machine, merged from attributes and addresses.
	if m.ID != api.ID("99") {
		t.Errorf("Expected id '99', got %q", m.ID)
	}
	if m.Hostname != "test" {
		t.Errorf("Expected hostname 'test', got %q", m.Hostname)
	}
	if m.Label != "test-label" {
		t.Errorf("Expected label 'test-label', got %q", m.Label)
	}
	if m.MemoryMB != 512 {
		t.Errorf("Expected 512 MB memory, got %d", m.MemoryMB)
	}
	if m.CPUCount != 1 {
		t.Errorf("Expected 1 cpu, got %d", m.CPUCount)
	}
	if m.TemplateID != 70 {
		t.Errorf("Expected template 70, got %d", m.TemplateID)
	}
	if m.State != "running" {
		t.Errorf("Expected state 'running', got %q", m.State)
	}
	if !m.Booted {
		t.Error("Expected machine to be booted")
	}
	if got := m.Extra["operating_system"]; got != "linux" {
		t.Errorf("Expected extra operating_system 'linux', got %v", got)
	}
	wantIPs := []string{"10.0.0.2", "10.0.0.1"}
	if len(m.IPAddresses) != len(wantIPs) {
		t.Fatalf("Expected addresses %v, got %v", wantIPs, m.IPAddresses)
	}
	for i, ip := range wantIPs {
		if m.IPAddresses[i] != ip {
			t.Errorf("Expected address %q at index %d, got %q", ip, i, m.IPAddresses[i])
		}
	}

	// Every request of the create ran under the same operation.
	if len(client.ops) < 2 {
		t.Fatalf("Expected multiple requests, got %d", len(client.ops))
	}
	for i, op := range client.ops {
		if op != client.ops[0] {
			t.Errorf("Expected one shared operation, request %d used a different one", i)
		}
	}

	// The lifecycle event went out.
	if len(publisher.publishCalls) != 1 || publisher.publishCalls[0] != events.SubjectCreated {
		t.Errorf("Expected one %s event, got %v", events.SubjectCreated, publisher.publishCalls)
	}
}

func TestCreate_TimedOut(t *testing.T) {
	client := newMockAPIClient()
	client.statusScript = []api.TransactionStatus{{Status: "pending"}}
	publisher := newMockPublisher()
	svc := NewService(client, fastWaiter(client), WithEvents(publisher))

	_, err := svc.Create(context.Background(), testSpec())

	var provErr *ProvisionError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProvisionError, got %v", err)
	}
	if provErr.Outcome != transaction.OutcomeTimedOut {
		t.Errorf("Expected outcome %q, got %q", transaction.OutcomeTimedOut, provErr.Outcome)
	}

	// The waiter spent its whole default budget.
	if polls := client.pollCalls(); len(polls) != transaction.DefaultMaxAttempts {
		t.Errorf("Expected %d status polls, got %d", transaction.DefaultMaxAttempts, len(polls))
	}

	// No state fetch and no event for a machine that never materialized.
	for _, path := range client.getCalls {
		if path == "/virtual_machine/99" {
			t.Error("Expected no state fetch after a timed out transaction")
		}
	}
	if len(publisher.publishCalls) != 0 {
		t.Errorf("Expected no events, got %v", publisher.publishCalls)
	}
}

func TestCreate_Errored(t *testing.T) {
	client := newMockAPIClient()
	waiter := newMockWaiter()
	waiter.waitFunc = func(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error) {
		return transaction.OutcomeErrored, nil
	}
	svc := NewService(client, waiter)

	_, err := svc.Create(context.Background(), testSpec())

	var provErr *ProvisionError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProvisionError, got %v", err)
	}
	if provErr.Outcome != transaction.OutcomeErrored {
		t.Errorf("Expected outcome %q, got %q", transaction.OutcomeErrored, provErr.Outcome)
	}
	if len(waiter.waitCalls) != 1 || waiter.waitCalls[0] != api.ID("42") {
		t.Errorf("Expected one wait on transaction '42', got %v", waiter.waitCalls)
	}
}

func TestCreate_NotFoundOutcomeIsBenign(t *testing.T) {
	// A transaction can finish and be reaped before the first poll sees it.
	// Create still fetches and returns the machine's state.
	client := newMockAPIClient()
	waiter := newMockWaiter()
	waiter.waitFunc = func(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error) {
		return transaction.OutcomeNotFound, nil
	}
	svc := NewService(client, waiter)

	m, err := svc.Create(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID != api.ID("99") {
		t.Errorf("Expected id '99', got %q", m.ID)
	}
}

func TestCreate_InvalidSpec(t *testing.T) {
	client := newMockAPIClient()
	svc := NewService(client, newMockWaiter())

	_, err := svc.Create(context.Background(), Spec{Hostname: "test"})
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if len(client.postFormCalls) != 0 {
		t.Errorf("Expected no provider calls for an invalid spec, got %v", client.postFormCalls)
	}
}

func TestCreate_NormalizesSpec(t *testing.T) {
	client := newMockAPIClient()
	svc := NewService(client, newMockWaiter())

	spec := testSpec()
	spec.Hostname = "  Test  "
	spec.Label = ""

	if _, err := svc.Create(context.Background(), spec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	form := client.postForms[0]
	if got := form.Get("hostname"); got != "test" {
		t.Errorf("Expected normalized hostname 'test', got %q", got)
	}
	if got := form.Get("label"); got != "test" {
		t.Errorf("Expected label to default to hostname, got %q", got)
	}
}

func TestCreate_EventPublishFailureIsNotFatal(t *testing.T) {
	client := newMockAPIClient()
	publisher := newMockPublisher()
	publisher.publishFunc = func(subject string, payload any) error {
		return errors.New("nats: connection closed")
	}
	svc := NewService(client, newMockWaiter(), WithEvents(publisher))

	m, err := svc.Create(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID != api.ID("99") {
		t.Errorf("Expected id '99', got %q", m.ID)
	}
	if len(publisher.publishCalls) != 1 {
		t.Errorf("Expected one publish attempt, got %d", len(publisher.publishCalls))
	}
}

func TestCreate_RequestFailure(t *testing.T) {
	client := newMockAPIClient()
	requestErr := errors.New("connection refused")
	client.postFormFunc = func(ctx context.Context, op *api.Operation, path string, form url.Values, out any) error {
		return requestErr
	}
	waiter := newMockWaiter()
	svc := NewService(client, waiter)

	_, err := svc.Create(context.Background(), testSpec())
	if !errors.Is(err, requestErr) {
		t.Fatalf("Expected wrapped request error, got %v", err)
	}
	if len(waiter.waitCalls) != 0 {
		t.Errorf("Expected no wait after a failed request, got %v", waiter.waitCalls)
	}
}

func TestCreate_WaitTransportError(t *testing.T) {
	client := newMockAPIClient()
	waiter := newMockWaiter()
	transportErr := errors.New("connection reset")
	waiter.waitFunc = func(ctx context.Context, op *api.Operation, id api.ID) (transaction.Outcome, error) {
		return "", transportErr
	}
	svc := NewService(client, waiter)

	_, err := svc.Create(context.Background(), testSpec())
	if !errors.Is(err, transportErr) {
		t.Fatalf("Expected transport error to propagate, got %v", err)
	}
}
