package sequences

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/opencode-ai/tutorial/internal/tutorial"
)

// Build renders a definition's text with vars and constructs the engine
// sequence. Missing required variables are an error; optional ones take
// their default.
func Build(def *Definition, vars map[string]string) (*tutorial.Sequence, error) {
	if def == nil {
		return nil, fmt.Errorf("sequence definition is required")
	}

	data, err := resolveVariables(def, vars)
	if err != nil {
		return nil, err
	}

	steps := make([]tutorial.Step, 0, len(def.Steps))
	for i, sd := range def.Steps {
		step, err := buildStep(def.ID, sd, data)
		if err != nil {
			return nil, fmt.Errorf("build sequence %q step %d: %w", def.ID, i+1, err)
		}
		steps = append(steps, step)
	}

	return tutorial.NewSequence(def.ID, steps,
		tutorial.WithName(def.DisplayName()),
		tutorial.WithPriority(def.Priority),
		tutorial.WithCanSkipAll(def.Skippable()),
	)
}

func resolveVariables(def *Definition, vars map[string]string) (map[string]string, error) {
	data := make(map[string]string, len(vars))
	for key, value := range vars {
		data[key] = value
	}

	for _, variable := range def.Variables {
		if strings.TrimSpace(data[variable.Name]) != "" {
			continue
		}
		if variable.Default != "" {
			data[variable.Name] = variable.Default
			continue
		}
		if variable.Required {
			return nil, fmt.Errorf("missing required variable %q", variable.Name)
		}
	}
	return data, nil
}

func buildStep(seqID string, sd StepDefinition, data map[string]string) (tutorial.Step, error) {
	title, err := renderText(seqID+"/"+sd.ID+"/title", sd.Title, data)
	if err != nil {
		return nil, err
	}
	message, err := renderText(seqID+"/"+sd.ID+"/message", sd.Message, data)
	if err != nil {
		return nil, err
	}

	before, err := parseDelay(sd.DelayBefore)
	if err != nil {
		return nil, fmt.Errorf("invalid delay_before: %w", err)
	}
	after, err := parseDelay(sd.DelayAfter)
	if err != nil {
		return nil, fmt.Errorf("invalid delay_after: %w", err)
	}

	opts := []tutorial.StepOption{
		tutorial.WithCanSkip(boolOr(sd.CanSkip, true)),
		tutorial.WithDelayBefore(before),
		tutorial.WithDelayAfter(after),
	}

	switch sd.Type {
	case StepTypeMessage:
		if !boolOr(sd.Wait, true) {
			opts = append(opts, tutorial.WithoutTapWait())
		}
		return tutorial.NewMessageStep(sd.ID, title, message, opts...), nil

	case StepTypeHighlight:
		if !boolOr(sd.RequireTarget, true) {
			opts = append(opts, tutorial.WithAnyTap())
		}
		return tutorial.NewHighlightStep(sd.ID, sd.Target, title, message, opts...), nil

	case StepTypePointer:
		if !boolOr(sd.Animate, true) {
			opts = append(opts, tutorial.WithoutAnimation())
		}
		var pos tutorial.Point
		if sd.Position != nil {
			pos = *sd.Position
		}
		return tutorial.NewPointerStep(sd.ID, pos, message, opts...), nil

	default:
		return nil, fmt.Errorf("unknown step type %q", sd.Type)
	}
}

func renderText(name, content string, data map[string]string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	parsed, err := template.New(name).
		Funcs(template.FuncMap{"default": defaultValue}).
		Option("missingkey=zero").
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}

	var out strings.Builder
	if err := parsed.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return out.String(), nil
}

func defaultValue(def string, value any) string {
	if value == nil {
		return def
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	default:
		text := strings.TrimSpace(fmt.Sprint(v))
		if text == "" || text == "<no value>" {
			return def
		}
		return text
	}
}
