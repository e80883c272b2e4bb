package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jbweber/gigas/internal/vm"
)

// TableFormatter formats virtual machines as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatVM formats a single virtual machine as a table row.
func (f *TableFormatter) FormatVM(m *vm.VM) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "ID\tHOSTNAME\tLABEL\tSTATE\tIPS\tCPUS\tMEMORY")
	}

	state := m.State
	if state == "" {
		state = "-"
	}

	ips := "-"
	if len(m.IPAddresses) > 0 {
		ips = strings.Join(m.IPAddresses, ",")
	}

	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d MB\n",
		m.ID, m.Hostname, m.Label, state, ips, m.CPUCount, m.MemoryMB)

	_ = w.Flush()
	return buf.String(), nil
}
