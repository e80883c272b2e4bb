package vm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jbweber/gigas/internal/api"
)

// Info fetches the machine's current attributes and derived address list.
// A machine id the provider does not know yields *NotFoundError.
func (s *Service) Info(ctx context.Context, id api.ID) (*VM, error) {
	return s.infoWithOperation(ctx, api.NewOperation("info"), id)
}

// infoWithOperation is Info under an existing operation, so a create can
// fetch the finalized machine within its own 401 retry budget.
func (s *Service) infoWithOperation(ctx context.Context, op *api.Operation, id api.ID) (*VM, error) {
	var attrs map[string]any
	if err := s.client.Get(ctx, op, "/virtual_machine/"+id.String(), &attrs); err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to fetch virtual machine %s: %w", id, err)
	}

	// The provider answers an unknown id with an empty or error document
	// rather than a 404.
	if len(attrs) == 0 {
		return nil, &NotFoundError{ID: id}
	}
	if _, ok := attrs["error"]; ok {
		return nil, &NotFoundError{ID: id}
	}

	ips, err := s.addresses(ctx, op, id)
	if err != nil {
		return nil, err
	}

	return newVM(attrs, ips), nil
}

// addresses joins the machine's interfaces against the account-wide address
// list. An address belongs to the machine when its interface id matches one
// of the machine's interfaces; the result keeps the order of the address
// list as the provider returned it.
func (s *Service) addresses(ctx context.Context, op *api.Operation, id api.ID) ([]string, error) {
	var ifaces []api.NetworkInterface
	if err := s.client.Get(ctx, op, "/virtual_machine/"+id.String()+"/network_interfaces", &ifaces); err != nil {
		return nil, fmt.Errorf("failed to fetch network interfaces for %s: %w", id, err)
	}

	var addrs []api.IPAddress
	if err := s.client.Get(ctx, op, "/ip_addresses", &addrs); err != nil {
		return nil, fmt.Errorf("failed to fetch ip addresses: %w", err)
	}

	owned := make(map[api.ID]bool, len(ifaces))
	for _, iface := range ifaces {
		owned[iface.ID] = true
	}

	var ips []string
	for _, addr := range addrs {
		if owned[addr.InterfaceID] {
			ips = append(ips, addr.Address)
		}
	}
	return ips, nil
}
