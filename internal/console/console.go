// Package console renders a tutorial as plain lines and reads commands from
// a line-oriented input such as a pipe or a dumb terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/tutorial/internal/logging"
	"github.com/opencode-ai/tutorial/internal/tui/components"
	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

const progressWidth = 20

// Controls is the subset of the controller that commands drive.
type Controls interface {
	SkipCurrentStep() bool
	SkipAll() bool
	Pause() bool
	Resume() bool
	Cancel() bool
	IsPaused() bool
	CurrentSequenceID() string
	CurrentStepIndex() int
	Progress() float64
}

// Presentation writes each engine call as a line of text.
type Presentation struct {
	tutorial.InputSignals

	mu        sync.Mutex
	out       io.Writer
	styles    styles.Styles
	logger    zerolog.Logger
	highlight string
	steps     int
}

// New creates a presentation writing to out. Taps and clicks typed ahead of
// the step that waits for them are queued, so scripted input works.
func New(out io.Writer, theme styles.Theme) *Presentation {
	if theme.Name == "" {
		theme = styles.DefaultTheme
	}
	p := &Presentation{
		out:    out,
		styles: styles.BuildStylesWithRenderer(lipgloss.NewRenderer(out), theme),
		logger: logging.Component("console"),
	}
	p.QueueUnclaimed()
	return p
}

func (p *Presentation) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.logger.Debug().Err(err).Msg("write failed")
	}
}

func (p *Presentation) Show() {
	p.printf("%s\n", p.styles.Muted.Render(strings.Repeat("-", 40)))
}

func (p *Presentation) Hide() {
	p.mu.Lock()
	p.highlight = ""
	p.mu.Unlock()
	p.printf("%s\n", p.styles.Muted.Render(strings.Repeat("-", 40)))
}

func (p *Presentation) ShowMessage(title, message string) {
	if title != "" {
		p.printf("%s\n", p.styles.Title.Render(title))
	}
	if message != "" {
		p.printf("  %s\n", p.styles.Text.Render(message))
	}
}

func (p *Presentation) HideMessage() {}

func (p *Presentation) HighlightTarget(targetID string) {
	p.mu.Lock()
	p.highlight = targetID
	p.mu.Unlock()
	p.printf("  %s %s\n", p.styles.Pointer.Render("->"), p.styles.Highlight.Render("click "+targetID))
}

func (p *Presentation) ClearHighlight() {
	p.mu.Lock()
	p.highlight = ""
	p.mu.Unlock()
}

func (p *Presentation) ShowPointer(position tutorial.Point, animate bool) {
	marker := "*"
	if animate {
		marker = "*~"
	}
	p.printf("  %s %s\n", p.styles.Pointer.Render(marker), p.styles.Muted.Render("look at "+position.String()))
}

func (p *Presentation) HidePointer() {}

func (p *Presentation) SetProgress(fraction float64) {
	p.printf("  %s\n", components.RenderProgressBar(p.styles, progressWidth, fraction))
}

// Highlighted returns the target currently highlighted, if any.
func (p *Presentation) Highlighted() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highlight
}

// OnTutorialEvent implements tutorial.Subscriber.
func (p *Presentation) OnTutorialEvent(e tutorial.Event) {
	switch e.Type {
	case tutorial.EventTutorialStarted:
		if e.Sequence == nil {
			return
		}
		p.mu.Lock()
		p.steps = e.Sequence.StepCount()
		p.mu.Unlock()
		p.printf("%s %s\n", p.styles.Accent.Render("Starting"), e.Sequence.Name())
		p.printf("%s\n", p.styles.Muted.Render("Press enter to continue, or type help."))
	case tutorial.EventStepChanged:
		p.mu.Lock()
		steps := p.steps
		p.mu.Unlock()
		if steps > 0 {
			p.printf("%s\n", p.styles.Muted.Render(fmt.Sprintf("[step %d/%d]", e.StepIndex+1, steps)))
		}
	case tutorial.EventTutorialCompleted:
		p.printf("%s\n", components.RenderStateBadge(p.styles, tutorial.StateCompleted))
	case tutorial.EventTutorialCancelled:
		p.printf("%s\n", components.RenderStateBadge(p.styles, tutorial.StateCancelled))
	}
}

// Drive reads commands from in until ctx is done, input ends, or the user
// quits. Reaching the end of input is not an error, but it closes the input:
// once queued commands are used up, the step waiting for input fails with
// tutorial.ErrInputClosed and the run is cancelled.
func (p *Presentation) Drive(ctx context.Context, in io.Reader, ctrl Controls) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				p.CloseInput()
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := p.dispatch(line, ctrl); quit {
				return nil
			}
		}
	}
}

func (p *Presentation) dispatch(line string, ctrl Controls) bool {
	cmd, err := ParseCommand(line)
	if err != nil {
		p.printf("%s\n", p.styles.Error.Render(err.Error()))
		return false
	}
	p.logger.Debug().Str("command", cmd.Kind.String()).Str("target", cmd.Target).Msg("command")

	switch cmd.Kind {
	case CommandTap:
		p.NotifyTap()
	case CommandClick:
		target := cmd.Target
		if target == "" {
			target = p.Highlighted()
		}
		if target == "" {
			p.printf("%s\n", p.styles.Warning.Render("nothing is highlighted; use click <target>"))
			return false
		}
		if !p.NotifyTargetClicked(target) && p.Pending() > 0 {
			p.printf("%s\n", p.styles.Warning.Render("that is not the highlighted target"))
		}
	case CommandSkip:
		p.report(ctrl.SkipCurrentStep(), "nothing to skip")
	case CommandSkipAll:
		p.report(ctrl.SkipAll(), "this tutorial cannot be skipped")
	case CommandPause:
		p.report(ctrl.Pause(), "not running")
	case CommandResume:
		p.report(ctrl.Resume(), "not paused")
	case CommandStatus:
		p.printStatus(ctrl)
	case CommandHelp:
		p.printf("%s\n", helpText)
	case CommandQuit:
		p.CloseInput()
		ctrl.Cancel()
		return true
	}
	return false
}

func (p *Presentation) report(ok bool, failure string) {
	if !ok {
		p.printf("%s\n", p.styles.Warning.Render(failure))
	}
}

func (p *Presentation) printStatus(ctrl Controls) {
	id := ctrl.CurrentSequenceID()
	if id == "" {
		p.printf("%s\n", components.NoTutorialRunning().RenderCompact(p.styles))
		return
	}
	state := tutorial.StateRunning
	if ctrl.IsPaused() {
		state = tutorial.StatePaused
	}
	p.printf("%s %s step %d %s\n",
		components.RenderStateBadge(p.styles, state),
		id,
		ctrl.CurrentStepIndex()+1,
		components.RenderProgressBar(p.styles, progressWidth, ctrl.Progress()),
	)
}

var _ tutorial.Presentation = (*Presentation)(nil)
