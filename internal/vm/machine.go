package vm

import (
	"strconv"

	"github.com/jbweber/gigas/internal/api"
)

// VM is a point-in-time snapshot of a provider machine: the typed fields the
// client understands, every other attribute the provider reported, and the
// machine's addresses.
//
// A VM is built once and never mutated afterwards, with one exception: a
// successful Delete invalidates the handle so later use fails fast.
type VM struct {
	ID         api.ID
	Hostname   string
	Label      string
	MemoryMB   int
	CPUCount   int
	TemplateID int
	State      string
	Booted     bool

	// Extra preserves provider attributes outside the typed set.
	Extra map[string]any

	// IPAddresses holds the machine's addresses in the order the provider
	// reports them.
	IPAddresses []string

	deleted bool
}

// newVM builds a VM from the provider's flattened attribute document and the
// derived address list.
func newVM(attrs map[string]any, ips []string) *VM {
	m := &VM{
		Extra:       make(map[string]any),
		IPAddresses: ips,
	}

	for k, v := range attrs {
		switch k {
		case "id":
			m.ID = coerceID(v)
		case "hostname":
			m.Hostname = coerceString(v)
		case "label":
			m.Label = coerceString(v)
		case "memory":
			m.MemoryMB = coerceInt(v)
		case "cpus":
			m.CPUCount = coerceInt(v)
		case "template_id":
			m.TemplateID = coerceInt(v)
		case "state":
			m.State = coerceString(v)
		case "booted":
			m.Booted = coerceBool(v)
		default:
			m.Extra[k] = v
		}
	}

	return m
}

// Deleted reports whether the handle was invalidated by a successful delete.
func (m *VM) Deleted() bool {
	return m.deleted
}

func (m *VM) invalidate() {
	m.deleted = true
}

// Attributes flattens the machine back into a single attribute map, typed
// fields and extras together. The map is freshly allocated on each call.
func (m *VM) Attributes() map[string]any {
	attrs := make(map[string]any, len(m.Extra)+9)
	for k, v := range m.Extra {
		attrs[k] = v
	}
	attrs["id"] = m.ID.String()
	attrs["hostname"] = m.Hostname
	attrs["label"] = m.Label
	attrs["memory"] = m.MemoryMB
	attrs["cpus"] = m.CPUCount
	attrs["template_id"] = m.TemplateID
	attrs["state"] = m.State
	attrs["booted"] = m.Booted
	attrs["ip_addresses"] = append([]string(nil), m.IPAddresses...)
	return attrs
}

// The provider is loose about scalar types across endpoints, so attribute
// extraction coerces instead of asserting.

func coerceID(v any) api.ID {
	switch t := v.(type) {
	case string:
		return api.ID(t)
	case float64:
		return api.ID(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return ""
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func coerceInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	b, _ := v.(bool)
	return b
}
