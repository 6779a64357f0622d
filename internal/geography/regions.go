// Package geography holds the static region tables used by the catalog loader
// (abbreviation expansion) and the matching engine (neighboring regions).
package geography

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsFS embed.FS

type regionsFile struct {
	Regions   map[string]string   `yaml:"regions"`
	Neighbors map[string][]string `yaml:"neighbors"`
}

// Table maps region abbreviations to full names and full names to their
// neighbors. Lookups are case-insensitive; the zero value expands nothing.
type Table struct {
	abbreviations map[string]string
	neighbors     map[string][]string
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in US state table.
func Default() *Table {
	defaultOnce.Do(func() {
		data, err := regionsFS.ReadFile("regions.yaml")
		if err == nil {
			defaultTable, err = Parse(data)
		}
		if err != nil {
			// embedded file is part of the build; an error here is a packaging bug
			panic(fmt.Sprintf("geography: embedded regions.yaml: %v", err))
		}
	})
	return defaultTable
}

// Load reads a regions file from disk. An empty path returns Default().
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regions file: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, fmt.Errorf("parse regions file: no regions defined")
	}
	return New(f.Regions, f.Neighbors), nil
}

// New builds a table from raw maps. Neighbor keys and values may be either
// abbreviations or full names; both are stored as full names.
func New(abbreviations map[string]string, neighbors map[string][]string) *Table {
	t := &Table{
		abbreviations: make(map[string]string, len(abbreviations)),
		neighbors:     make(map[string][]string, len(neighbors)),
	}
	for code, name := range abbreviations {
		t.abbreviations[strings.ToUpper(strings.TrimSpace(code))] = strings.TrimSpace(name)
	}
	for region, adj := range neighbors {
		key := strings.ToLower(t.Expand(region))
		names := make([]string, 0, len(adj))
		for _, n := range adj {
			names = append(names, t.Expand(n))
		}
		t.neighbors[key] = names
	}
	return t
}

// Expand returns the full region name for an abbreviation. Unknown tokens are
// returned unchanged.
func (t *Table) Expand(token string) string {
	if t == nil {
		return token
	}
	if name, ok := t.abbreviations[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return name
	}
	return token
}

func (t *Table) Neighbors(region string) []string {
	if t == nil {
		return nil
	}
	return t.neighbors[strings.ToLower(strings.TrimSpace(t.Expand(region)))]
}

// IsNeighbor reports whether candidate borders region. Either side may be an
// abbreviation.
func (t *Table) IsNeighbor(region, candidate string) bool {
	name := strings.TrimSpace(t.Expand(candidate))
	for _, n := range t.Neighbors(region) {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.abbreviations)
}
