package tutorial

import (
	"fmt"
	"strings"
)

// Sequence is an ordered, immutable list of steps representing one onboarding flow.
// Its ID is the completion key and must be stable across runs.
type Sequence struct {
	id         string
	name       string
	priority   int
	canSkipAll bool
	steps      []Step
}

// SequenceOption configures a sequence at construction.
type SequenceOption func(*Sequence)

// WithName sets the display name.
func WithName(name string) SequenceOption {
	return func(s *Sequence) { s.name = name }
}

// WithPriority sets the priority; higher is offered first.
func WithPriority(priority int) SequenceOption {
	return func(s *Sequence) { s.priority = priority }
}

// WithCanSkipAll sets whether the whole sequence may be skipped. Default: true.
func WithCanSkipAll(canSkipAll bool) SequenceOption {
	return func(s *Sequence) { s.canSkipAll = canSkipAll }
}

// NewSequence builds a sequence. Step identifiers must be non-empty and unique.
func NewSequence(id string, steps []Step, opts ...SequenceOption) (*Sequence, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: sequence id is required", ErrInvalidSequence)
	}

	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, fmt.Errorf("%w: sequence %q step %d is nil", ErrInvalidSequence, id, i)
		}
		if strings.TrimSpace(step.ID()) == "" {
			return nil, fmt.Errorf("%w: sequence %q step %d has no id", ErrInvalidSequence, id, i)
		}
		if _, exists := seen[step.ID()]; exists {
			return nil, fmt.Errorf("%w: sequence %q has duplicate step id %q", ErrInvalidSequence, id, step.ID())
		}
		seen[step.ID()] = struct{}{}
	}

	seq := &Sequence{
		id:         id,
		name:       id,
		canSkipAll: true,
		steps:      append([]Step(nil), steps...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(seq)
		}
	}
	return seq, nil
}

func (s *Sequence) ID() string       { return s.id }
func (s *Sequence) Name() string     { return s.name }
func (s *Sequence) Priority() int    { return s.priority }
func (s *Sequence) CanSkipAll() bool { return s.canSkipAll }
func (s *Sequence) StepCount() int   { return len(s.steps) }

// Steps returns a copy of the step list.
func (s *Sequence) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// Step returns the step at index, or nil when out of range.
func (s *Sequence) Step(index int) Step {
	if s == nil || index < 0 || index >= len(s.steps) {
		return nil
	}
	return s.steps[index]
}

// StepByID returns the step with the given id, or nil.
func (s *Sequence) StepByID(id string) Step {
	if s == nil {
		return nil
	}
	for _, step := range s.steps {
		if step.ID() == id {
			return step
		}
	}
	return nil
}

// reset recycles every step for a fresh run.
func (s *Sequence) reset() {
	for _, step := range s.steps {
		step.Reset()
	}
}
