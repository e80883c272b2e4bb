package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/gigas/internal/vm"
)

// YAMLFormatter formats virtual machines as YAML.
type YAMLFormatter struct{}

// FormatVM formats a single virtual machine as YAML.
func (f *YAMLFormatter) FormatVM(m *vm.VM) (string, error) {
	data, err := yaml.Marshal(m.Attributes())
	if err != nil {
		return "", fmt.Errorf("failed to marshal virtual machine to YAML: %w", err)
	}

	return string(data), nil
}
