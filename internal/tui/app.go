// Package tui implements a full-screen tutorial overlay on bubbletea.
package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

// Controls is the subset of the controller the overlay's keys drive.
type Controls interface {
	SkipCurrentStep() bool
	SkipAll() bool
	Pause() bool
	Resume() bool
	Cancel() bool
	IsPaused() bool
}

// Options configures the overlay.
type Options struct {
	// Controls may be left nil and bound later with SetControls.
	Controls Controls
	Theme    styles.Theme
	// Targets are the clickable element names offered for selection before
	// any step highlights one.
	Targets   []string
	AltScreen bool
	Input     io.Reader
	Output    io.Writer
}

// Presentation renders the tutorial in a bubbletea program. Engine calls are
// forwarded to the program as messages; key presses resolve the engine's
// waits through the embedded InputSignals.
type Presentation struct {
	tutorial.InputSignals

	program  *tea.Program
	controls *lateControls
}

// New creates the overlay. Call Run to start the program.
func New(opts Options) *Presentation {
	p := &Presentation{controls: &lateControls{c: opts.Controls}}

	theme := opts.Theme
	if theme.Name == "" {
		theme = styles.DefaultTheme
	}

	programOpts := []tea.ProgramOption{}
	if opts.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	p.program = tea.NewProgram(newModel(styles.BuildStyles(theme), p.controls, &p.InputSignals, opts.Targets), programOpts...)
	return p
}

// SetControls binds the controller the keys drive. The controller usually
// needs the presentation first, so binding happens after New.
func (p *Presentation) SetControls(c Controls) {
	p.controls.set(c)
}

// Run blocks until the program exits. A run still in progress is cancelled.
func (p *Presentation) Run() error {
	_, err := p.program.Run()
	p.controls.Cancel()
	p.ReleaseAll()
	return err
}

// Quit stops the program.
func (p *Presentation) Quit() {
	p.program.Send(quitMsg{})
}

// OnTutorialEvent implements tutorial.Subscriber so the overlay can show the
// sequence name and step position.
func (p *Presentation) OnTutorialEvent(e tutorial.Event) {
	switch e.Type {
	case tutorial.EventTutorialStarted:
		if e.Sequence != nil {
			p.program.Send(sequenceMsg{name: e.Sequence.Name(), steps: e.Sequence.StepCount()})
		}
	case tutorial.EventStepChanged:
		p.program.Send(stepMsg{index: e.StepIndex})
	case tutorial.EventTutorialCompleted, tutorial.EventTutorialCancelled:
		p.program.Send(statusMsg{finished: e.Type})
	}
}

func (p *Presentation) Show()                     { p.program.Send(visibleMsg(true)) }
func (p *Presentation) Hide()                     { p.program.Send(visibleMsg(false)) }
func (p *Presentation) HideMessage()              { p.program.Send(messageMsg{}) }
func (p *Presentation) ClearHighlight()           { p.program.Send(highlightMsg("")) }
func (p *Presentation) HidePointer()              { p.program.Send(pointerMsg{}) }
func (p *Presentation) SetProgress(f float64)     { p.program.Send(progressMsg(f)) }
func (p *Presentation) HighlightTarget(id string) { p.program.Send(highlightMsg(id)) }

func (p *Presentation) ShowMessage(title, message string) {
	p.program.Send(messageMsg{title: title, message: message})
}

func (p *Presentation) ShowPointer(position tutorial.Point, animate bool) {
	p.program.Send(pointerMsg{position: &position, animate: animate})
}

var _ tutorial.Presentation = (*Presentation)(nil)

// lateControls forwards to controls bound after the program was created.
type lateControls struct {
	mu sync.RWMutex
	c  Controls
}

func (l *lateControls) set(c Controls) {
	l.mu.Lock()
	l.c = c
	l.mu.Unlock()
}

func (l *lateControls) get() Controls {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.c
}

func (l *lateControls) SkipCurrentStep() bool {
	if c := l.get(); c != nil {
		return c.SkipCurrentStep()
	}
	return false
}

func (l *lateControls) SkipAll() bool {
	if c := l.get(); c != nil {
		return c.SkipAll()
	}
	return false
}

func (l *lateControls) Pause() bool {
	if c := l.get(); c != nil {
		return c.Pause()
	}
	return false
}

func (l *lateControls) Resume() bool {
	if c := l.get(); c != nil {
		return c.Resume()
	}
	return false
}

func (l *lateControls) Cancel() bool {
	if c := l.get(); c != nil {
		return c.Cancel()
	}
	return false
}

func (l *lateControls) IsPaused() bool {
	if c := l.get(); c != nil {
		return c.IsPaused()
	}
	return false
}
