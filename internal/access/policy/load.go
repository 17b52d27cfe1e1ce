package policy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk policy layout:
//
//	version: fcra-604/2025-06
//	purposes:
//	  - purpose: credit_application
//	    capability: access-credit-reports-for-credit_application
type fileFormat struct {
	Version  string `yaml:"version"`
	Purposes []struct {
		Purpose    string `yaml:"purpose"`
		Capability string `yaml:"capability"`
	} `yaml:"purposes"`
}

// Load reads a policy table from a YAML file.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML policy document. Unknown fields are rejected, and every
// capability must follow the access-credit-reports-for-<purpose> naming rule.
func Parse(raw []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var f fileFormat
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}

	purposes := make([]string, 0, len(f.Purposes))
	for _, p := range f.Purposes {
		if p.Capability != "" && p.Capability != CapabilityFor(p.Purpose) {
			return nil, fmt.Errorf("purpose %q: capability must be %q, got %q", p.Purpose, CapabilityFor(p.Purpose), p.Capability)
		}
		purposes = append(purposes, p.Purpose)
	}
	return New(f.Version, purposes...)
}
