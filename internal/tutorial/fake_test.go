package tutorial

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// recordingView is a Presentation that records calls and resolves waits from
// test code through its embedded InputSignals.
type recordingView struct {
	InputSignals

	mu       sync.Mutex
	calls    []string
	visible  bool
	progress []float64
}

func newRecordingView() *recordingView { return &recordingView{} }

func (v *recordingView) record(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

func (v *recordingView) Show() {
	v.mu.Lock()
	v.visible = true
	v.mu.Unlock()
	v.record("show")
}

func (v *recordingView) Hide() {
	v.mu.Lock()
	v.visible = false
	v.mu.Unlock()
	v.record("hide")
}

func (v *recordingView) ShowMessage(title, message string) { v.record("message %s|%s", title, message) }
func (v *recordingView) HideMessage()                      { v.record("hide-message") }
func (v *recordingView) HighlightTarget(id string)         { v.record("highlight %s", id) }
func (v *recordingView) ClearHighlight()                   { v.record("clear-highlight") }
func (v *recordingView) ShowPointer(p Point, animate bool) { v.record("pointer %s %t", p, animate) }
func (v *recordingView) HidePointer()                      { v.record("hide-pointer") }

func (v *recordingView) SetProgress(f float64) {
	v.mu.Lock()
	v.progress = append(v.progress, f)
	v.mu.Unlock()
}

func (v *recordingView) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *recordingView) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

func (v *recordingView) Progress() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]float64(nil), v.progress...)
}

func (v *recordingView) Count(call string) int {
	n := 0
	for _, c := range v.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// countingStep is a hand-rolled Step that blocks until ctx is done or it is
// released, and counts Cleanup calls.
type countingStep struct {
	id       string
	canSkip  bool
	started  chan struct{}
	release  chan struct{}
	once     sync.Once
	cleanups atomic.Int32
	executed atomic.Int32
	state    atomic.Value
}

func newCountingStep(id string) *countingStep {
	s := &countingStep{
		id:      id,
		canSkip: true,
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s.state.Store(StepPending)
	return s
}

func (s *countingStep) ID() string                 { return s.id }
func (s *countingStep) Title() string              { return "" }
func (s *countingStep) Message() string            { return "" }
func (s *countingStep) CanSkip() bool              { return s.canSkip }
func (s *countingStep) DelayBefore() time.Duration { return 0 }
func (s *countingStep) DelayAfter() time.Duration  { return 0 }
func (s *countingStep) Kind() StepKind             { return StepKindMessage }
func (s *countingStep) State() StepState           { return s.state.Load().(StepState) }
func (s *countingStep) Skip() bool                 { return false }
func (s *countingStep) Cleanup()                   { s.cleanups.Add(1) }
func (s *countingStep) Reset()                     { s.state.Store(StepPending) }

func (s *countingStep) Execute(ctx context.Context, _ Presentation) error {
	s.executed.Add(1)
	s.state.Store(StepActive)
	select {
	case s.started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		s.state.Store(StepCompleted)
		return nil
	}
}

func (s *countingStep) Release() {
	s.once.Do(func() { close(s.release) })
}

// eventLog collects event types from a subscriber.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnTutorialEvent(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) Types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		types = append(types, e.Type)
	}
	return types
}

func (l *eventLog) Of(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
