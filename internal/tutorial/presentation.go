package tutorial

import (
	"context"
	"fmt"
	"time"
)

// Point is a screen position.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Presentation is the UI capability the engine drives. Implementations render
// and collect input; the engine never draws anything itself.
//
// The wait methods block until the input arrives or ctx is done, in which case
// they return ctx.Err().
type Presentation interface {
	Show()
	Hide()
	ShowMessage(title, message string)
	HideMessage()
	HighlightTarget(targetID string)
	ClearHighlight()
	ShowPointer(position Point, animate bool)
	HidePointer()
	SetProgress(fraction float64)

	WaitForTap(ctx context.Context) error
	WaitForTargetClick(ctx context.Context, targetID string) error
}

// headless stands in when no presentation is attached: every call is a no-op
// and waits resolve after a fixed delay.
type headless struct {
	delay time.Duration
}

func (headless) Show()                      {}
func (headless) Hide()                      {}
func (headless) ShowMessage(string, string) {}
func (headless) HideMessage()               {}
func (headless) HighlightTarget(string)     {}
func (headless) ClearHighlight()            {}
func (headless) ShowPointer(Point, bool)    {}
func (headless) HidePointer()               {}
func (headless) SetProgress(float64)        {}

func (h headless) WaitForTap(ctx context.Context) error {
	return sleep(ctx, h.delay)
}

func (h headless) WaitForTargetClick(ctx context.Context, _ string) error {
	return sleep(ctx, h.delay)
}

// sleep suspends for d or until ctx is done. A non-positive d still observes
// cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
