package vm

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec describes the machine to provision.
type Spec struct {
	MemoryMB          int    `yaml:"memory_mb"`
	CPUCount          int    `yaml:"cpu_count"`
	Hostname          string `yaml:"hostname"`
	Label             string `yaml:"label,omitempty"`
	PrimaryDiskSizeGB int    `yaml:"primary_disk_size_gb"`
	SwapDiskSizeGB    int    `yaml:"swap_disk_size_gb"`
	TemplateID        int    `yaml:"template_id"`
}

// Normalize sanitizes user input to consistent formats.
// This is called automatically by LoadSpec before validation.
func (s *Spec) Normalize() {
	s.Hostname = strings.ToLower(strings.TrimSpace(s.Hostname))
	s.Label = strings.TrimSpace(s.Label)
	if s.Label == "" {
		s.Label = s.Hostname
	}
}

// Validate checks the spec for errors. Only the structure is checked;
// template ids and account capacity are the provider's to validate.
func (s *Spec) Validate() error {
	if s.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if s.MemoryMB <= 0 {
		return fmt.Errorf("memory_mb must be > 0, got %d", s.MemoryMB)
	}
	if s.CPUCount <= 0 {
		return fmt.Errorf("cpu_count must be > 0, got %d", s.CPUCount)
	}
	if s.PrimaryDiskSizeGB <= 0 {
		return fmt.Errorf("primary_disk_size_gb must be > 0, got %d", s.PrimaryDiskSizeGB)
	}
	if s.SwapDiskSizeGB < 0 {
		return fmt.Errorf("swap_disk_size_gb must be >= 0, got %d", s.SwapDiskSizeGB)
	}
	if s.TemplateID <= 0 {
		return fmt.Errorf("template_id must be > 0, got %d", s.TemplateID)
	}
	return nil
}

// form returns the provisioning payload using the provider's wire names.
func (s *Spec) form() url.Values {
	v := url.Values{}
	v.Set("memory", strconv.Itoa(s.MemoryMB))
	v.Set("cpus", strconv.Itoa(s.CPUCount))
	v.Set("hostname", s.Hostname)
	v.Set("label", s.Label)
	v.Set("primary_disk_size", strconv.Itoa(s.PrimaryDiskSizeGB))
	v.Set("swap_disk_size", strconv.Itoa(s.SwapDiskSizeGB))
	v.Set("template_id", strconv.Itoa(s.TemplateID))
	return v
}

// LoadSpec loads a machine spec from a YAML file.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to read spec file: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Normalize user input before validation
	spec.Normalize()

	if err := spec.Validate(); err != nil {
		return Spec{}, fmt.Errorf("invalid spec: %w", err)
	}

	return spec, nil
}
