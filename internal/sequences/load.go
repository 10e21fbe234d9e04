package sequences

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadDefinition reads a single definition from disk.
func LoadDefinition(path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sequence path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence %s: %w", path, err)
	}

	def, err := parseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// LoadDefinitionsFromDir loads all .yaml and .yml definitions in dir. A
// missing directory yields no definitions.
func LoadDefinitionsFromDir(dir string) ([]*Definition, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Definition{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Definition{}, nil
		}
		return nil, fmt.Errorf("read sequences dir %s: %w", dir, err)
	}

	defs := make([]*Definition, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := LoadDefinition(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].ID < defs[j].ID
	})

	return defs, nil
}

// ParseDefinition parses and validates a definition from YAML.
func ParseDefinition(data []byte) (*Definition, error) {
	return parseDefinition(data)
}

func parseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}

	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		return nil, fmt.Errorf("sequence id is required")
	}
	def.Name = strings.TrimSpace(def.Name)
	def.Description = strings.TrimSpace(def.Description)

	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("sequence steps are required")
	}

	seenVars := make(map[string]struct{})
	for i := range def.Variables {
		name := strings.TrimSpace(def.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("sequence variable name is required")
		}
		if _, exists := seenVars[name]; exists {
			return nil, fmt.Errorf("duplicate sequence variable %q", name)
		}
		seenVars[name] = struct{}{}
		def.Variables[i].Name = name
	}

	seenSteps := make(map[string]struct{})
	for i := range def.Steps {
		step := &def.Steps[i]
		if err := normalizeStep(step); err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i+1, err)
		}
		if step.ID == "" {
			step.ID = fmt.Sprintf("%s-%d", def.ID, i+1)
		}
		if _, exists := seenSteps[step.ID]; exists {
			return nil, fmt.Errorf("sequence step %d: duplicate step id %q", i+1, step.ID)
		}
		seenSteps[step.ID] = struct{}{}
	}

	return &def, nil
}

func normalizeStep(step *StepDefinition) error {
	step.ID = strings.TrimSpace(step.ID)
	step.Type = StepType(strings.ToLower(strings.TrimSpace(string(step.Type))))
	step.Title = strings.TrimSpace(step.Title)
	step.Message = strings.TrimSpace(step.Message)
	step.Content = strings.TrimSpace(step.Content)
	step.Target = strings.TrimSpace(step.Target)
	step.DelayBefore = strings.TrimSpace(step.DelayBefore)
	step.DelayAfter = strings.TrimSpace(step.DelayAfter)

	if step.Message == "" && step.Content != "" {
		step.Message = step.Content
	}
	if step.Content != "" && step.Message != step.Content {
		return fmt.Errorf("content and message disagree")
	}
	step.Content = ""

	if _, err := parseDelay(step.DelayBefore); err != nil {
		return fmt.Errorf("invalid delay_before: %w", err)
	}
	if _, err := parseDelay(step.DelayAfter); err != nil {
		return fmt.Errorf("invalid delay_after: %w", err)
	}

	switch step.Type {
	case StepTypeMessage:
		if step.Message == "" && step.Title == "" {
			return fmt.Errorf("message step needs a title or message")
		}

	case StepTypeHighlight:
		if step.Target == "" {
			return fmt.Errorf("highlight target is required")
		}

	case StepTypePointer:
		if step.Position == nil {
			return fmt.Errorf("pointer position is required")
		}
		if step.Title != "" {
			return fmt.Errorf("pointer steps have no title")
		}

	case "":
		return fmt.Errorf("step type is required")

	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}

	return nil
}

// parseDelay parses a Go duration. Empty means zero; negative is rejected.
func parseDelay(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}
