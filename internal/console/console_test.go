package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/tutorial/internal/tui/styles"
	"github.com/opencode-ai/tutorial/internal/tutorial"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{line: "", want: Command{Kind: CommandTap}},
		{line: "   ", want: Command{Kind: CommandTap}},
		{line: "next", want: Command{Kind: CommandTap}},
		{line: "click", want: Command{Kind: CommandClick}},
		{line: "click SaveButton", want: Command{Kind: CommandClick, Target: "SaveButton"}},
		{line: "skip", want: Command{Kind: CommandSkip}},
		{line: "Skip All", want: Command{Kind: CommandSkipAll}},
		{line: "p", want: Command{Kind: CommandPause}},
		{line: "resume", want: Command{Kind: CommandResume}},
		{line: "quit", want: Command{Kind: CommandQuit}},
		{line: "?", want: Command{Kind: CommandHelp}},
		{line: "status", want: Command{Kind: CommandStatus}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"dance", "skip some", "click a b"} {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestPresentationOutput(t *testing.T) {
	out := &syncBuffer{}
	p := New(out, styles.Theme{})

	p.ShowMessage("Welcome", "Let's get started")
	p.HighlightTarget("save")
	p.ShowPointer(tutorial.Point{X: 1, Y: 2}, false)
	p.SetProgress(0.5)

	text := out.String()
	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "Let's get started")
	assert.Contains(t, text, "click save")
	assert.Contains(t, text, "look at (1, 2)")
	assert.Contains(t, text, "50%")
	assert.Equal(t, "save", p.Highlighted())

	p.ClearHighlight()
	assert.Empty(t, p.Highlighted())
}

type fakeControls struct {
	skipped   bool
	cancelled bool
}

func (f *fakeControls) SkipCurrentStep() bool     { f.skipped = true; return true }
func (f *fakeControls) SkipAll() bool             { return false }
func (f *fakeControls) Pause() bool               { return false }
func (f *fakeControls) Resume() bool              { return false }
func (f *fakeControls) Cancel() bool              { f.cancelled = true; return true }
func (f *fakeControls) IsPaused() bool            { return false }
func (f *fakeControls) CurrentSequenceID() string { return "" }
func (f *fakeControls) CurrentStepIndex() int     { return -1 }
func (f *fakeControls) Progress() float64         { return 0 }

func TestDriveDispatchesUntilQuit(t *testing.T) {
	out := &syncBuffer{}
	p := New(out, styles.Theme{})
	ctrl := &fakeControls{}

	in := strings.NewReader("skip\nskip all\nstatus\nbogus\nquit\nskip\n")
	require.NoError(t, p.Drive(context.Background(), in, ctrl))

	assert.True(t, ctrl.skipped)
	assert.True(t, ctrl.cancelled)

	text := out.String()
	assert.Contains(t, text, "this tutorial cannot be skipped")
	assert.Contains(t, text, "No tutorial running")
	assert.Contains(t, text, `unknown command "bogus"`)
}

func TestDriveEndOfInput(t *testing.T) {
	p := New(io.Discard, styles.Theme{})
	require.NoError(t, p.Drive(context.Background(), strings.NewReader(""), &fakeControls{}))
}

func TestDriveTypedAheadInput(t *testing.T) {
	p := New(io.Discard, styles.Theme{})

	seq, err := tutorial.NewSequence("tour", []tutorial.Step{
		tutorial.NewMessageStep("hello", "Hello", "Welcome", tutorial.WithDelayBefore(20*time.Millisecond)),
		tutorial.NewHighlightStep("save", "save-button", "Save", "Click save"),
	})
	require.NoError(t, err)
	ctrl := tutorial.NewController(tutorial.NewModel(), p)

	require.NoError(t, p.Drive(context.Background(), strings.NewReader("\nclick save-button\n"), ctrl))
	assert.Equal(t, 2, p.Queued())

	outcome, err := ctrl.Start(context.Background(), seq, 0)
	require.NoError(t, err)
	assert.Equal(t, tutorial.OutcomeCompleted, outcome)
}

func TestDriveEmptyInputCancelsRun(t *testing.T) {
	p := New(io.Discard, styles.Theme{})

	seq, err := tutorial.NewSequence("tour", []tutorial.Step{
		tutorial.NewMessageStep("hello", "Hello", "Welcome"),
	})
	require.NoError(t, err)
	ctrl := tutorial.NewController(tutorial.NewModel(), p)

	result := make(chan tutorial.Outcome, 1)
	go func() {
		outcome, err := ctrl.Start(context.Background(), seq, 0)
		assert.NoError(t, err)
		result <- outcome
	}()
	require.NoError(t, p.Drive(context.Background(), strings.NewReader(""), ctrl))

	select {
	case outcome := <-result:
		assert.Equal(t, tutorial.OutcomeCancelled, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("run kept waiting after input ended")
	}
	assert.False(t, ctrl.IsSequenceCompleted("tour"))
}

func TestDriveStopsOnContext(t *testing.T) {
	p := New(io.Discard, styles.Theme{})
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Drive(ctx, reader, &fakeControls{}) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Drive did not return after cancel")
	}
}

func TestDriveRunsTutorial(t *testing.T) {
	out := &syncBuffer{}
	p := New(out, styles.Theme{})

	seq, err := tutorial.NewSequence("tour", []tutorial.Step{
		tutorial.NewMessageStep("hello", "Hello", "Welcome aboard"),
		tutorial.NewHighlightStep("save", "save-button", "Save", "Click save"),
	}, tutorial.WithName("Tour"))
	require.NoError(t, err)

	ctrl := tutorial.NewController(tutorial.NewModel(), p)
	require.NoError(t, ctrl.Subscribe("console", p))

	reader, writer := io.Pipe()
	driveDone := make(chan error, 1)
	go func() { driveDone <- p.Drive(context.Background(), reader, ctrl) }()

	result := make(chan tutorial.Outcome, 1)
	go func() {
		outcome, err := ctrl.Start(context.Background(), seq, 0)
		assert.NoError(t, err)
		result <- outcome
	}()

	require.Eventually(t, func() bool { return p.Pending() == 1 }, time.Second, 5*time.Millisecond)
	_, err = io.WriteString(writer, "\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		targets := p.PendingTargets()
		return len(targets) == 1 && targets[0] == "save-button"
	}, time.Second, 5*time.Millisecond)
	_, err = io.WriteString(writer, "click\n")
	require.NoError(t, err)

	select {
	case outcome := <-result:
		assert.Equal(t, tutorial.OutcomeCompleted, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("tutorial did not complete")
	}

	require.NoError(t, writer.Close())
	require.NoError(t, <-driveDone)

	text := out.String()
	assert.Contains(t, text, "Starting Tour")
	assert.Contains(t, text, "[step 2/2]")
	assert.Contains(t, text, "Welcome aboard")
	assert.Contains(t, text, "100%")
}
