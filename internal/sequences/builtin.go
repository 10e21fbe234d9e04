package sequences

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltinDefinitions returns the definitions bundled with the binary.
func LoadBuiltinDefinitions() ([]*Definition, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin sequences: %w", err)
	}

	defs := make([]*Definition, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := builtinFS.ReadFile("builtin/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin sequence %s: %w", entry.Name(), err)
		}
		def, err := parseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin sequence %s: %w", entry.Name(), err)
		}
		def.Source = "builtin"
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].ID < defs[j].ID
	})

	return defs, nil
}
