// Package tutorial implements the tutorial sequencing engine: steps, sequences,
// the run-state model and the controller that drives a sequence against a
// presentation layer.
package tutorial

import (
	"context"
	"sync"
	"time"
)

// StepState is the lifecycle state of a step within one run.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
	StepSkipped   StepState = "skipped"
)

// Terminal reports whether the state can no longer change during a run.
func (s StepState) Terminal() bool {
	return s == StepCompleted || s == StepSkipped
}

// StepKind identifies a step variant.
type StepKind string

const (
	StepKindMessage   StepKind = "message"
	StepKindHighlight StepKind = "highlight"
	StepKindPointer   StepKind = "pointer"
)

// Step is one unit of guided interaction.
//
// Execute suspends until the step's completion condition holds, the step is
// skipped, or ctx is cancelled. It returns nil when the step completed or was
// skipped and ctx.Err() when cancelled.
type Step interface {
	ID() string
	Title() string
	Message() string
	CanSkip() bool
	DelayBefore() time.Duration
	DelayAfter() time.Duration
	State() StepState
	Kind() StepKind

	Execute(ctx context.Context, p Presentation) error

	// Skip moves a non-terminal, skippable step to Skipped and releases any
	// pending wait. It returns false and changes nothing otherwise.
	Skip() bool

	// Cleanup tears down whatever Execute put on screen. It is idempotent and
	// safe to call before Execute ever ran.
	Cleanup()

	// Reset returns the step to Pending for a fresh run.
	Reset()
}

// activator is implemented by the built-in steps so the controller can move
// them from Pending to Active before the pre-step delay.
type activator interface {
	activate() bool
}

// StepOption configures a step at construction.
type StepOption func(*stepConfig)

type stepConfig struct {
	canSkip       bool
	delayBefore   time.Duration
	delayAfter    time.Duration
	waitForTap    bool
	requireTarget bool
	animate       bool
}

func defaultStepConfig() stepConfig {
	return stepConfig{
		canSkip:       true,
		waitForTap:    true,
		requireTarget: true,
		animate:       true,
	}
}

// WithCanSkip sets whether the step may be skipped. Default: true.
func WithCanSkip(canSkip bool) StepOption {
	return func(c *stepConfig) { c.canSkip = canSkip }
}

// WithDelayBefore sets the pause before the step executes. Negative values clamp to zero.
func WithDelayBefore(d time.Duration) StepOption {
	return func(c *stepConfig) { c.delayBefore = max(d, 0) }
}

// WithDelayAfter sets the pause after the step completes. Negative values clamp to zero.
func WithDelayAfter(d time.Duration) StepOption {
	return func(c *stepConfig) { c.delayAfter = max(d, 0) }
}

// WithoutTapWait makes a message step complete as soon as it is shown.
func WithoutTapWait() StepOption {
	return func(c *stepConfig) { c.waitForTap = false }
}

// WithAnyTap makes a highlight step accept any acknowledgment instead of a
// click on its target.
func WithAnyTap() StepOption {
	return func(c *stepConfig) { c.requireTarget = false }
}

// WithoutAnimation shows a pointer step's pointer without the bobbing animation.
func WithoutAnimation() StepOption {
	return func(c *stepConfig) { c.animate = false }
}

// stepBase holds what every variant shares: identity, timing, skip policy and
// the guarded lifecycle state.
type stepBase struct {
	id          string
	title       string
	message     string
	canSkip     bool
	delayBefore time.Duration
	delayAfter  time.Duration

	mu     sync.Mutex
	state  StepState
	cancel context.CancelFunc // releases the in-flight wait
	shown  Presentation       // set while visuals are on screen
}

func newStepBase(id, title, message string, cfg stepConfig) stepBase {
	return stepBase{
		id:          id,
		title:       title,
		message:     message,
		canSkip:     cfg.canSkip,
		delayBefore: cfg.delayBefore,
		delayAfter:  cfg.delayAfter,
		state:       StepPending,
	}
}

func (b *stepBase) ID() string                 { return b.id }
func (b *stepBase) Title() string              { return b.title }
func (b *stepBase) Message() string            { return b.message }
func (b *stepBase) CanSkip() bool              { return b.canSkip }
func (b *stepBase) DelayBefore() time.Duration { return b.delayBefore }
func (b *stepBase) DelayAfter() time.Duration  { return b.delayAfter }

func (b *stepBase) State() StepState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *stepBase) activate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StepPending {
		return false
	}
	b.state = StepActive
	return true
}

func (b *stepBase) Skip() bool {
	b.mu.Lock()
	if !b.canSkip || b.state.Terminal() {
		b.mu.Unlock()
		return false
	}
	b.state = StepSkipped
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

func (b *stepBase) Reset() {
	b.mu.Lock()
	cancel := b.cancel
	b.state = StepPending
	b.cancel = nil
	b.shown = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// begin prepares an execution: it activates a pending step, records the
// presentation for Cleanup and derives the context the wait runs under.
// ok is false when the step was already skipped or completed.
func (b *stepBase) begin(ctx context.Context, p Presentation) (context.Context, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StepPending {
		b.state = StepActive
	}
	if b.state != StepActive {
		return ctx, false
	}

	waitCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.shown = p
	return waitCtx, true
}

// finish resolves an execution after its wait returned. A skip that raced the
// wait wins over completion; cancellation of the parent context is reported as
// an error.
func (b *stepBase) finish(parent context.Context, waitErr error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}

	switch {
	case b.state == StepSkipped:
		return nil
	case parent.Err() != nil:
		return parent.Err()
	case waitErr != nil:
		return waitErr
	}

	b.state = StepCompleted
	return nil
}

// takeShown returns the presentation the step drew on and forgets it, so a
// second Cleanup is a no-op.
func (b *stepBase) takeShown() Presentation {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	p := b.shown
	b.shown = nil
	return p
}
