package capability

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed metadata.yaml
var defaultTableYAML []byte

// MetaEntry is one row of the metadata table: the public identity and
// prose for a (service, method) pair. The call contract always comes from
// the collaborator's own method descriptor so the two cannot drift apart.
type MetaEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Examples    []string `yaml:"examples,omitempty"`
	Guidance    string   `yaml:"guidance,omitempty"`
}

// Table maps service name -> method name -> metadata.
type Table map[string]map[string]MetaEntry

// DefaultTable parses the embedded metadata table.
func DefaultTable() (Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads a metadata table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata table %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable parses a metadata table from YAML bytes.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing metadata table: %w", err)
	}
	for service, methods := range t {
		for method, entry := range methods {
			if entry.Name == "" {
				return nil, fmt.Errorf("metadata entry %s.%s has no public name", service, method)
			}
		}
	}
	return t, nil
}

// Lookup finds the entry for a public capability name.
func (t Table) Lookup(publicName string) (MetaEntry, bool) {
	for _, methods := range t {
		for _, entry := range methods {
			if entry.Name == publicName {
				return entry, true
			}
		}
	}
	return MetaEntry{}, false
}
