package tutorial

import "context"

// MessageStep shows a title and message and waits for a generic acknowledgment.
type MessageStep struct {
	stepBase
	waitForTap bool
}

// NewMessageStep creates a message step. It waits for a tap unless
// WithoutTapWait is given.
func NewMessageStep(id, title, message string, opts ...StepOption) *MessageStep {
	cfg := applyStepOptions(opts)
	return &MessageStep{
		stepBase:   newStepBase(id, title, message, cfg),
		waitForTap: cfg.waitForTap,
	}
}

// Kind implements Step.
func (s *MessageStep) Kind() StepKind { return StepKindMessage }

// WaitsForTap reports whether the step suspends until acknowledged.
func (s *MessageStep) WaitsForTap() bool { return s.waitForTap }

// Execute implements Step.
func (s *MessageStep) Execute(ctx context.Context, p Presentation) error {
	waitCtx, ok := s.begin(ctx, p)
	if !ok {
		return nil
	}

	p.ShowMessage(s.title, s.message)

	var err error
	if s.waitForTap {
		err = p.WaitForTap(waitCtx)
	}
	return s.finish(ctx, err)
}

// Cleanup implements Step.
func (s *MessageStep) Cleanup() {
	if p := s.takeShown(); p != nil {
		p.HideMessage()
	}
}

// HighlightStep highlights a named target and waits until it is clicked.
type HighlightStep struct {
	stepBase
	targetID      string
	requireTarget bool
}

// NewHighlightStep creates a highlight step for targetID. Title and message
// are optional. The step waits for a click on the target unless WithAnyTap is
// given.
func NewHighlightStep(id, targetID, title, message string, opts ...StepOption) *HighlightStep {
	cfg := applyStepOptions(opts)
	return &HighlightStep{
		stepBase:      newStepBase(id, title, message, cfg),
		targetID:      targetID,
		requireTarget: cfg.requireTarget,
	}
}

// Kind implements Step.
func (s *HighlightStep) Kind() StepKind { return StepKindHighlight }

// TargetID returns the highlighted target.
func (s *HighlightStep) TargetID() string { return s.targetID }

// RequiresTarget reports whether only a click on the target completes the step.
func (s *HighlightStep) RequiresTarget() bool { return s.requireTarget }

// Execute implements Step.
func (s *HighlightStep) Execute(ctx context.Context, p Presentation) error {
	waitCtx, ok := s.begin(ctx, p)
	if !ok {
		return nil
	}

	p.ShowMessage(s.title, s.message)
	p.HighlightTarget(s.targetID)

	var err error
	if s.requireTarget {
		err = p.WaitForTargetClick(waitCtx, s.targetID)
	} else {
		err = p.WaitForTap(waitCtx)
	}
	return s.finish(ctx, err)
}

// Cleanup implements Step.
func (s *HighlightStep) Cleanup() {
	if p := s.takeShown(); p != nil {
		p.ClearHighlight()
	}
}

// PointerStep shows a pointer at a screen position and waits for a tap.
type PointerStep struct {
	stepBase
	position Point
	animate  bool
}

// NewPointerStep creates a pointer step. Pointer steps carry no title.
func NewPointerStep(id string, position Point, message string, opts ...StepOption) *PointerStep {
	cfg := applyStepOptions(opts)
	return &PointerStep{
		stepBase: newStepBase(id, "", message, cfg),
		position: position,
		animate:  cfg.animate,
	}
}

// Kind implements Step.
func (s *PointerStep) Kind() StepKind { return StepKindPointer }

// Position returns where the pointer is drawn.
func (s *PointerStep) Position() Point { return s.position }

// Animate reports whether the pointer bobs.
func (s *PointerStep) Animate() bool { return s.animate }

// Execute implements Step.
func (s *PointerStep) Execute(ctx context.Context, p Presentation) error {
	waitCtx, ok := s.begin(ctx, p)
	if !ok {
		return nil
	}

	p.ShowMessage("", s.message)
	p.ShowPointer(s.position, s.animate)

	return s.finish(ctx, p.WaitForTap(waitCtx))
}

// Cleanup implements Step.
func (s *PointerStep) Cleanup() {
	if p := s.takeShown(); p != nil {
		p.HidePointer()
	}
}

func applyStepOptions(opts []StepOption) stepConfig {
	cfg := defaultStepConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

var (
	_ Step = (*MessageStep)(nil)
	_ Step = (*HighlightStep)(nil)
	_ Step = (*PointerStep)(nil)
)
