package sequences

import (
	"os"
	"path/filepath"
)

// SearchPaths returns definition directories in precedence order.
func SearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".tutorial", "sequences"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "tutorial", "sequences"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "tutorial", "sequences"))
	return paths
}

// LoadDefinitionsFromSearchPaths loads definitions with first-hit precedence.
// extraDir, when set, is searched before everything else; builtins come last.
func LoadDefinitionsFromSearchPaths(projectDir, extraDir string) ([]*Definition, error) {
	paths := SearchPaths(projectDir)
	if extraDir != "" {
		paths = append([]string{extraDir}, paths...)
	}

	seen := make(map[string]*Definition)
	order := make([]string, 0)
	add := func(defs []*Definition) {
		for _, def := range defs {
			if _, exists := seen[def.ID]; exists {
				continue
			}
			seen[def.ID] = def
			order = append(order, def.ID)
		}
	}

	for _, path := range paths {
		defs, err := LoadDefinitionsFromDir(path)
		if err != nil {
			return nil, err
		}
		add(defs)
	}

	builtins, err := LoadBuiltinDefinitions()
	if err != nil {
		return nil, err
	}
	add(builtins)

	resolved := make([]*Definition, 0, len(order))
	for _, id := range order {
		resolved = append(resolved, seen[id])
	}

	return resolved, nil
}

// Find returns the definition with id from defs, or nil.
func Find(defs []*Definition, id string) *Definition {
	for _, def := range defs {
		if def.ID == id {
			return def
		}
	}
	return nil
}
