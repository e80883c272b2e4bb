package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/gigas/internal/api"
	"github.com/jbweber/gigas/internal/output"
	"github.com/jbweber/gigas/internal/vm"
)

// Output flags shared by create and get.
var (
	outputFormat string
	noHeaders    bool
)

func init() {
	for _, cmd := range []*cobra.Command{createCmd, getCmd} {
		cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, yaml, json)")
		cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "omit headers in table output")
	}
}

func validateOutputFlags() error {
	return output.ValidateFormat(outputFormat)
}

// printVM renders a machine in the selected output format.
func printVM(m *vm.VM) error {
	formatter, err := output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
	if err != nil {
		return err
	}

	result, err := formatter.FormatVM(m)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Print(result)
	return nil
}

var getCmd = &cobra.Command{
	Use:   "get <vm-id>",
	Short: "Get details about a virtual machine",
	Long: `Get detailed information about a specific virtual machine.

Displays the machine's attributes and its IP addresses, derived from the
account's address list.

Output formats:
  -o table  Human-readable table (default)
  -o yaml   Full attribute document as YAML
  -o json   Full attribute document as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFlags(); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := commandContext()
		defer stop()

		m, err := a.service.Info(ctx, api.ID(args[0]))
		if err != nil {
			return fmt.Errorf("failed to get virtual machine: %w", err)
		}

		return printVM(m)
	},
}
