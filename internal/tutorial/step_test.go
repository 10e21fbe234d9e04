package tutorial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeAsync(ctx context.Context, step Step, p Presentation) <-chan error {
	done := make(chan error, 1)
	go func() { done <- step.Execute(ctx, p) }()
	return done
}

func TestMessageStep_WaitsForTap(t *testing.T) {
	view := newRecordingView()
	step := NewMessageStep("welcome", "Welcome", "Hello there")

	done := executeAsync(context.Background(), step, view)

	require.Eventually(t, func() bool { return view.Pending() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StepActive, step.State())
	assert.Contains(t, view.Calls(), "message Welcome|Hello there")

	view.NotifyTap()

	require.NoError(t, <-done)
	assert.Equal(t, StepCompleted, step.State())
}

func TestMessageStep_WithoutTapWait(t *testing.T) {
	view := newRecordingView()
	step := NewMessageStep("info", "Info", "No wait", WithoutTapWait())

	require.NoError(t, step.Execute(context.Background(), view))
	assert.Equal(t, StepCompleted, step.State())
	assert.False(t, step.WaitsForTap())
	assert.Zero(t, view.Pending())
}

func TestStep_SkipReleasesWait(t *testing.T) {
	view := newRecordingView()
	step := NewMessageStep("welcome", "Welcome", "Hello")

	done := executeAsync(context.Background(), step, view)
	require.Eventually(t, func() bool { return view.Pending() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, step.Skip())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("skip did not release the wait")
	}
	assert.Equal(t, StepSkipped, step.State())
	assert.Eventually(t, func() bool { return view.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStep_SkipRespectsPolicy(t *testing.T) {
	step := NewMessageStep("locked", "Locked", "Cannot skip", WithCanSkip(false))

	assert.False(t, step.Skip())
	assert.Equal(t, StepPending, step.State())
}

func TestStep_SkipTerminalIsNoop(t *testing.T) {
	step := NewMessageStep("done", "Done", "", WithoutTapWait())
	require.NoError(t, step.Execute(context.Background(), newRecordingView()))

	assert.False(t, step.Skip())
	assert.Equal(t, StepCompleted, step.State())
}

func TestStep_SkippedBeforeExecuteShowsNothing(t *testing.T) {
	view := newRecordingView()
	step := NewMessageStep("early", "Early", "")
	require.True(t, step.Skip())

	require.NoError(t, step.Execute(context.Background(), view))
	assert.Empty(t, view.Calls())
	assert.Equal(t, StepSkipped, step.State())
}

func TestStep_CancelReturnsContextError(t *testing.T) {
	view := newRecordingView()
	step := NewHighlightStep("click", "btn", "Click", "Click the button")

	ctx, cancel := context.WithCancel(context.Background())
	done := executeAsync(ctx, step, view)
	require.Eventually(t, func() bool { return view.Pending() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, StepActive, step.State())
}

func TestStep_CleanupIsIdempotent(t *testing.T) {
	view := newRecordingView()
	step := NewHighlightStep("click", "btn", "", "", WithAnyTap())

	step.Cleanup()
	assert.Empty(t, view.Calls(), "cleanup before execute must not touch the view")

	done := executeAsync(context.Background(), step, view)
	require.Eventually(t, func() bool { return view.Pending() == 1 }, time.Second, 5*time.Millisecond)
	view.NotifyTap()
	require.NoError(t, <-done)

	step.Cleanup()
	step.Cleanup()
	assert.Equal(t, 1, view.Count("clear-highlight"))
}

func TestHighlightStep_RequiresTargetClick(t *testing.T) {
	view := newRecordingView()
	step := NewHighlightStep("click", "save-button", "Save", "Click save")

	done := executeAsync(context.Background(), step, view)
	require.Eventually(t, func() bool {
		targets := view.PendingTargets()
		return len(targets) == 1 && targets[0] == "save-button"
	}, time.Second, 5*time.Millisecond)

	assert.False(t, view.NotifyTargetClicked("other"))
	assert.Equal(t, StepActive, step.State())

	assert.True(t, view.NotifyTargetClicked("save-button"))
	require.NoError(t, <-done)
	assert.Equal(t, StepCompleted, step.State())
	assert.Contains(t, view.Calls(), "highlight save-button")
}

func TestPointerStep(t *testing.T) {
	view := newRecordingView()
	step := NewPointerStep("point", Point{X: 10, Y: 20}, "Look here", WithoutAnimation())

	assert.Equal(t, StepKindPointer, step.Kind())
	assert.Empty(t, step.Title())
	assert.False(t, step.Animate())

	done := executeAsync(context.Background(), step, view)
	require.Eventually(t, func() bool { return view.Pending() == 1 }, time.Second, 5*time.Millisecond)
	view.NotifyTap()
	require.NoError(t, <-done)

	step.Cleanup()
	calls := view.Calls()
	assert.Contains(t, calls, "message |Look here")
	assert.Contains(t, calls, "pointer (10, 20) false")
	assert.Contains(t, calls, "hide-pointer")
}

func TestStep_Reset(t *testing.T) {
	step := NewMessageStep("again", "", "", WithoutTapWait())
	require.NoError(t, step.Execute(context.Background(), newRecordingView()))
	require.Equal(t, StepCompleted, step.State())

	step.Reset()
	assert.Equal(t, StepPending, step.State())
}

func TestStepOptions_NegativeDelaysClamp(t *testing.T) {
	step := NewMessageStep("delays", "", "", WithDelayBefore(-time.Second), WithDelayAfter(-time.Second))

	assert.Zero(t, step.DelayBefore())
	assert.Zero(t, step.DelayAfter())
}
