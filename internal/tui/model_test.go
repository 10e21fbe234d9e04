package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

type fakeControls struct {
	paused  bool
	skips   int
	skipAll int
	cancels int
}

func (f *fakeControls) SkipCurrentStep() bool { f.skips++; return true }
func (f *fakeControls) SkipAll() bool         { f.skipAll++; return true }
func (f *fakeControls) Pause() bool           { f.paused = true; return true }
func (f *fakeControls) Resume() bool          { f.paused = false; return true }
func (f *fakeControls) Cancel() bool          { f.cancels++; return true }
func (f *fakeControls) IsPaused() bool        { return f.paused }

type fakeSignals struct {
	taps   int
	clicks []string
}

func (f *fakeSignals) NotifyTap() { f.taps++ }
func (f *fakeSignals) NotifyTargetClicked(id string) bool {
	f.clicks = append(f.clicks, id)
	return true
}

func newTestModel(targets ...string) (model, *fakeControls, *fakeSignals) {
	controls := &fakeControls{}
	signals := &fakeSignals{}
	return newModel(styles.DefaultStyles(), controls, signals, targets), controls, signals
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRendersOverlay(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, sequenceMsg{name: "Welcome", steps: 2})
	m, _ = update(t, m, stepMsg{index: 0})
	m, _ = update(t, m, visibleMsg(true))
	m, _ = update(t, m, messageMsg{title: "Hello", message: "Let's get started"})
	m, _ = update(t, m, progressMsg(0.5))

	view := m.View()
	assert.Contains(t, view, "Welcome")
	assert.Contains(t, view, "step 1/2")
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "Let's get started")
	assert.Contains(t, view, "50%")

	m, _ = update(t, m, messageMsg{})
	assert.NotContains(t, m.View(), "Let's get started")
}

func TestModelHiddenShowsStatus(t *testing.T) {
	m, _, _ := newTestModel()
	assert.Contains(t, m.View(), "No tutorial running")

	m, _ = update(t, m, statusMsg{finished: tutorial.EventTutorialCompleted})
	assert.Contains(t, m.View(), "Tutorial completed.")

	m, _ = update(t, m, visibleMsg(true))
	m, _ = update(t, m, visibleMsg(false))
	assert.NotContains(t, m.View(), "Tutorial completed.")
}

func TestModelHighlightSelectsTarget(t *testing.T) {
	m, _, signals := newTestModel("open", "save")

	m, _ = update(t, m, highlightMsg("save"))
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "click here")

	m, _ = update(t, m, highlightMsg("new-project"))
	assert.Equal(t, []string{"open", "save", "new-project"}, m.targets)
	assert.Equal(t, 2, m.selected)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"save"}, signals.clicks)

	m, _ = update(t, m, highlightMsg(""))
	assert.Empty(t, m.highlight)
	assert.NotContains(t, m.View(), "click here")
}

func TestModelKeys(t *testing.T) {
	m, controls, signals := newTestModel()

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, signals.taps, "enter taps when no target is selectable")

	m, _ = update(t, m, runes("s"))
	m, _ = update(t, m, runes("S"))
	assert.Equal(t, 1, controls.skips)
	assert.Equal(t, 1, controls.skipAll)

	m, _ = update(t, m, runes("p"))
	assert.True(t, m.paused)
	assert.Contains(t, m.View(), "Paused")
	m, _ = update(t, m, runes("p"))
	assert.False(t, m.paused)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, controls.cancels)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModelPointerAnimation(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, visibleMsg(true))

	pos := tutorial.Point{X: 0.5, Y: 0.2}
	m, cmd := update(t, m, pointerMsg{position: &pos, animate: true})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "(0.5, 0.2)")

	m, cmd = update(t, m, bobMsg{})
	assert.NotNil(t, cmd)
	assert.True(t, m.bobUp)

	m, _ = update(t, m, pointerMsg{})
	_, cmd = update(t, m, bobMsg{})
	assert.Nil(t, cmd, "bobbing stops once the pointer is hidden")
}

func TestModelNarrowTerminal(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 10})
	assert.Contains(t, m.View(), "too narrow")
}

func TestModelQuitMessage(t *testing.T) {
	m, _, _ := newTestModel()
	_, cmd := update(t, m, quitMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLateControlsForwardAfterBinding(t *testing.T) {
	late := &lateControls{}
	assert.False(t, late.SkipCurrentStep(), "unbound controls are no-ops")
	assert.False(t, late.Cancel())

	controls := &fakeControls{}
	late.set(controls)

	assert.True(t, late.SkipCurrentStep())
	assert.True(t, late.Pause())
	assert.True(t, late.IsPaused())
	assert.True(t, late.Cancel())
	assert.Equal(t, 1, controls.skips)
	assert.Equal(t, 1, controls.cancels)
}

func TestPresentationSetControls(t *testing.T) {
	p := New(Options{})
	controls := &fakeControls{}
	p.SetControls(controls)

	assert.True(t, p.controls.SkipAll())
	assert.Equal(t, 1, controls.skipAll)
}
