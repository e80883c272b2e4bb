package api

import (
	"encoding/json"
	"fmt"
)

// ID is a provider object identifier. The API is inconsistent about whether
// ids appear as JSON strings or numbers, so ID accepts both and normalizes
// to the string form.
type ID string

// UnmarshalJSON decodes a string or numeric id.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// tokenResponse is the body of POST /token.
type tokenResponse struct {
	Token string `json:"token"`
}

// Resource identifies the object a queued operation acts on.
type Resource struct {
	ID ID `json:"id"`
}

// ProvisionResponse is the body returned by the asynchronous mutation
// endpoints (create and delete). QueueToken identifies the transaction to
// poll; Resource is only populated on create.
type ProvisionResponse struct {
	QueueToken ID       `json:"queue_token"`
	Resource   Resource `json:"resource"`
}

// NetworkInterface is one element of GET /virtual_machine/{id}/network_interfaces.
type NetworkInterface struct {
	ID ID `json:"id"`
}

// IPAddress is one element of the account-wide GET /ip_addresses listing.
// InterfaceID ties the address back to a machine's network interface.
type IPAddress struct {
	InterfaceID ID     `json:"interface_id"`
	Address     string `json:"address"`
}

// TransactionStatus is the body of GET /transaction/{id}/status. Exactly one
// of Status or Error is meaningful: a failed or unknown transaction reports
// Error, a live one reports Status.
type TransactionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
