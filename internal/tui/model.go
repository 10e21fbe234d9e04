package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/tutorial/internal/tui/components"
	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

type (
	visibleMsg   bool
	highlightMsg string
	progressMsg  float64
	quitMsg      struct{}
	bobMsg       time.Time

	messageMsg struct {
		title   string
		message string
	}
	pointerMsg struct {
		position *tutorial.Point
		animate  bool
	}
	sequenceMsg struct {
		name  string
		steps int
	}
	stepMsg struct {
		index int
	}
	statusMsg struct {
		finished tutorial.EventType
	}
)

// signaler resolves the engine's waits.
type signaler interface {
	NotifyTap()
	NotifyTargetClicked(targetID string) bool
}

const (
	minWidth    = 40
	barWidth    = 24
	bobInterval = 400 * time.Millisecond
)

type model struct {
	styles   styles.Styles
	controls Controls
	signals  signaler

	width  int
	height int

	visible   bool
	title     string
	message   string
	highlight string
	targets   []string
	selected  int
	pointer   *tutorial.Point
	animate   bool
	bobUp     bool
	progress  float64
	paused    bool
	sequence  string
	stepIndex int
	stepCount int
	status    string
}

func newModel(styleSet styles.Styles, controls Controls, signals signaler, targets []string) model {
	return model{
		styles:    styleSet,
		controls:  controls,
		signals:   signals,
		targets:   append([]string(nil), targets...),
		stepIndex: -1,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case visibleMsg:
		m.visible = bool(msg)
		if m.visible {
			m.status = ""
		}
	case messageMsg:
		m.title = msg.title
		m.message = msg.message
	case highlightMsg:
		m.highlight = string(msg)
		if m.highlight != "" {
			if i := slices.Index(m.targets, m.highlight); i >= 0 {
				m.selected = i
			} else {
				m.targets = append(m.targets, m.highlight)
				m.selected = len(m.targets) - 1
			}
		}
	case pointerMsg:
		m.pointer = msg.position
		m.animate = msg.animate
		if m.pointer != nil && m.animate {
			return m, bobCmd()
		}
	case bobMsg:
		if m.pointer != nil && m.animate {
			m.bobUp = !m.bobUp
			return m, bobCmd()
		}
	case progressMsg:
		m.progress = float64(msg)
	case sequenceMsg:
		m.sequence = msg.name
		m.stepCount = msg.steps
		m.stepIndex = -1
	case stepMsg:
		m.stepIndex = msg.index
	case statusMsg:
		switch msg.finished {
		case tutorial.EventTutorialCompleted:
			m.status = "Tutorial completed."
		case tutorial.EventTutorialCancelled:
			m.status = "Tutorial cancelled."
		}
	case quitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ", "space":
		m.signals.NotifyTap()
	case "enter":
		if target := m.selectedTarget(); target != "" {
			m.signals.NotifyTargetClicked(target)
		} else {
			m.signals.NotifyTap()
		}
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.targets)-1 {
			m.selected++
		}
	case "s":
		if m.controls != nil {
			m.controls.SkipCurrentStep()
		}
	case "S":
		if m.controls != nil {
			m.controls.SkipAll()
		}
	case "p":
		if m.controls != nil {
			if m.controls.IsPaused() {
				m.controls.Resume()
			} else {
				m.controls.Pause()
			}
			m.paused = m.controls.IsPaused()
		}
	case "q", "esc", "ctrl+c":
		if m.controls != nil {
			m.controls.Cancel()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m model) selectedTarget() string {
	if m.selected < 0 || m.selected >= len(m.targets) {
		return ""
	}
	return m.targets[m.selected]
}

func (m model) View() string {
	if m.width > 0 && m.width < minWidth {
		return m.styles.Warning.Render(fmt.Sprintf("Terminal too narrow (%d). Resize to at least %d.", m.width, minWidth)) + "\n"
	}

	lines := []string{m.headerLine(), ""}

	if len(m.targets) > 0 {
		lines = append(lines, m.styles.Muted.Render("Targets:"))
		for i, target := range m.targets {
			lines = append(lines, m.targetLine(i, target))
		}
		lines = append(lines, "")
	}

	if !m.visible {
		if m.status != "" {
			lines = append(lines, m.styles.Info.Render(m.status))
		} else {
			lines = append(lines, components.NoTutorialRunning().RenderCompact(m.styles))
		}
	} else {
		lines = append(lines, m.overlayLines()...)
	}

	lines = append(lines, "", m.styles.Muted.Render("space tap | enter click | up/down select | s skip | S skip all | p pause | q quit"))
	return strings.Join(lines, "\n") + "\n"
}

func (m model) headerLine() string {
	header := m.styles.Title.Render("Tutorial")
	if m.sequence != "" {
		header += " " + m.styles.Accent.Render(m.sequence)
	}
	if m.stepCount > 0 && m.stepIndex >= 0 {
		header += m.styles.Muted.Render(fmt.Sprintf("  step %d/%d", m.stepIndex+1, m.stepCount))
	}
	if m.paused {
		header += "  " + components.RenderStateBadge(m.styles, tutorial.StatePaused)
	}
	return header
}

func (m model) targetLine(i int, target string) string {
	cursor := "  "
	if i == m.selected {
		cursor = m.styles.Focus.Render("> ")
	}
	label := m.styles.Text.Render(target)
	if target == m.highlight {
		label = m.styles.Highlight.Render(target) + m.styles.Muted.Render("  <- click here")
	}
	return cursor + label
}

func (m model) overlayLines() []string {
	var body []string
	if m.title != "" {
		body = append(body, m.styles.Title.Render(m.title))
	}
	if m.message != "" {
		body = append(body, m.styles.Text.Render(m.message))
	}
	if m.pointer != nil {
		body = append(body, m.pointerLine())
	}
	body = append(body, "", components.RenderProgressBar(m.styles, barWidth, m.progress))

	panel := m.styles.Panel
	if m.width > 0 {
		panel = panel.Width(min(m.width-4, 72))
	}
	return []string{panel.Render(strings.Join(body, "\n"))}
}

func (m model) pointerLine() string {
	arrow := "v"
	if m.animate && m.bobUp {
		arrow = "^"
	}
	indent := 0
	if m.width > 0 && m.pointer.X >= 0 && m.pointer.X <= 1 {
		indent = int(m.pointer.X * float64(min(m.width-8, 64)))
	}
	return strings.Repeat(" ", max(indent, 0)) + m.styles.Pointer.Render(arrow) +
		m.styles.Muted.Render(" "+m.pointer.String())
}

func bobCmd() tea.Cmd {
	return tea.Tick(bobInterval, func(t time.Time) tea.Msg {
		return bobMsg(t)
	})
}
