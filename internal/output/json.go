package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/gigas/internal/vm"
)

// JSONFormatter formats virtual machines as JSON.
type JSONFormatter struct{}

// FormatVM formats a single virtual machine as JSON. The flattened
// attribute map is used so provider attributes outside the typed set
// appear too.
func (f *JSONFormatter) FormatVM(m *vm.VM) (string, error) {
	data, err := json.MarshalIndent(m.Attributes(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal virtual machine to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
