package tutorial

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opencode-ai/tutorial/internal/logging"
	"github.com/rs/zerolog"
)

// Controller errors.
var (
	ErrAlreadyRunning     = errors.New("tutorial already running")
	ErrSequenceNotFound   = errors.New("sequence not found")
	ErrNilSequence        = errors.New("sequence is nil")
	ErrInvalidSequence    = errors.New("invalid sequence")
	ErrControllerClosed   = errors.New("controller closed")
	ErrInvalidSubscriber  = errors.New("invalid subscriber")
	ErrSubscriberExists   = errors.New("subscriber already registered")
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

// DefaultPausePollInterval is how often a paused run re-checks the model,
// roughly one frame at 60Hz.
const DefaultPausePollInterval = 16 * time.Millisecond

// Outcome reports how Start returned.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeRejected         Outcome = "rejected"
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithPausePollInterval sets how often a paused run re-checks for resume.
func WithPausePollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithHeadlessDelay sets how long waits take when no presentation is attached.
func WithHeadlessDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.headlessDelay = max(d, 0) }
}

// Controller drives a Model through the steps of one sequence at a time
// against a Presentation. It is the only component that suspends.
//
// Start blocks for the length of the run; the control methods (Pause, Resume,
// SkipCurrentStep, SkipAll, Cancel) are safe to call from other goroutines.
type Controller struct {
	model         *Model
	view          Presentation
	logger        zerolog.Logger
	pollInterval  time.Duration
	headlessDelay time.Duration
	events        *notifier
	subscriberID  string

	mu        sync.Mutex
	sequences map[string]*Sequence
	run       *run
	closed    bool
}

// run is the bookkeeping for one execution of a sequence.
type run struct {
	seq    *Sequence
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	gen        uint64
	active     Step
	cleaned    bool
	skippedAll bool
	finalize   sync.Once
}

func (r *run) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *run) setActive(step Step) {
	r.mu.Lock()
	if r.active != step {
		r.active = step
		r.cleaned = false
	}
	r.mu.Unlock()
}

// cleanupActive calls Cleanup on the active step at most once per activation.
func (r *run) cleanupActive() {
	r.cleanupCurrent(nil)
}

// cleanupCurrent is cleanupActive, except that current, when set, becomes the
// active step first. Cancel uses it for a step the model has entered but the
// loop has not activated yet.
func (r *run) cleanupCurrent(current Step) {
	r.mu.Lock()
	if current != nil && current != r.active {
		r.active = current
		r.cleaned = false
	}
	step := r.active
	if step == nil || r.cleaned {
		r.mu.Unlock()
		return
	}
	r.cleaned = true
	r.mu.Unlock()

	step.Cleanup()
}

// NewController creates a controller over model. A nil presentation is
// replaced by a headless one so runs still progress.
func NewController(model *Model, view Presentation, opts ...ControllerOption) *Controller {
	if model == nil {
		model = NewModel()
	}

	c := &Controller{
		model:        model,
		view:         view,
		logger:       logging.Component("tutorial"),
		pollInterval: DefaultPausePollInterval,
		events:       newNotifier(),
		sequences:    make(map[string]*Sequence),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.view == nil {
		c.view = headless{delay: c.headlessDelay}
	}

	c.subscriberID = fmt.Sprintf("controller-%p", c)
	if err := model.SubscribeFunc(c.subscriberID, c.onModelEvent); err != nil {
		c.logger.Warn().Err(err).Msg("failed to subscribe to model events")
	}
	return c
}

// Model returns the model the controller drives.
func (c *Controller) Model() *Model { return c.model }

// Subscribe registers a subscriber for controller notifications under id.
func (c *Controller) Subscribe(id string, sub Subscriber) error {
	return c.events.subscribe(id, sub)
}

// SubscribeFunc registers a function for controller notifications under id.
func (c *Controller) SubscribeFunc(id string, fn func(Event)) error {
	if fn == nil {
		return ErrInvalidSubscriber
	}
	return c.events.subscribe(id, SubscriberFunc(fn))
}

// Unsubscribe removes the subscriber registered under id.
func (c *Controller) Unsubscribe(id string) error {
	return c.events.unsubscribe(id)
}

// RegisterSequence makes seq startable by id. The last registration for an id wins.
func (c *Controller) RegisterSequence(seq *Sequence) bool {
	if seq == nil {
		c.logger.Warn().Msg("cannot register nil sequence")
		return false
	}

	c.mu.Lock()
	c.sequences[seq.ID()] = seq
	c.mu.Unlock()

	c.logger.Debug().Str("sequence_id", seq.ID()).Int("steps", seq.StepCount()).Msg("sequence registered")
	return true
}

// Sequence returns the registered sequence for id.
func (c *Controller) Sequence(id string) (*Sequence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.sequences[id]
	return seq, ok
}

// Sequences returns the registered sequences, highest priority first.
func (c *Controller) Sequences() []*Sequence {
	c.mu.Lock()
	list := make([]*Sequence, 0, len(c.sequences))
	for _, seq := range c.sequences {
		list = append(list, seq)
	}
	c.mu.Unlock()

	sortByPriority(list)
	return list
}

// Eligible returns the registered sequences that have not been completed,
// highest priority first. Choosing one to start is left to the caller.
func (c *Controller) Eligible() []*Sequence {
	all := c.Sequences()
	eligible := make([]*Sequence, 0, len(all))
	for _, seq := range all {
		if !c.model.IsSequenceCompleted(seq.ID()) {
			eligible = append(eligible, seq)
		}
	}
	return eligible
}

// StartByID starts the registered sequence id. See Start.
func (c *Controller) StartByID(ctx context.Context, id string, startStep int) (Outcome, error) {
	seq, ok := c.Sequence(id)
	if !ok {
		c.logger.Warn().Str("sequence_id", id).Msg("sequence not found")
		return OutcomeRejected, fmt.Errorf("%w: %s", ErrSequenceNotFound, id)
	}
	return c.Start(ctx, seq, startStep)
}

// Start runs seq from startStep and blocks until the run completes or is
// cancelled. Steps before startStep are fast-forwarded without executing.
//
// Starting an already completed sequence is a no-op (OutcomeAlreadyCompleted).
// Starting while another run is active is rejected with ErrAlreadyRunning.
// Cancellation, through Cancel or ctx, returns OutcomeCancelled and a nil error.
func (c *Controller) Start(ctx context.Context, seq *Sequence, startStep int) (Outcome, error) {
	if seq == nil {
		c.logger.Warn().Msg("cannot start nil sequence")
		return OutcomeRejected, ErrNilSequence
	}
	if c.model.IsSequenceCompleted(seq.ID()) {
		c.logger.Debug().Str("sequence_id", seq.ID()).Msg("sequence already completed")
		return OutcomeAlreadyCompleted, nil
	}

	r, err := c.reserve(ctx, seq)
	if err != nil {
		return OutcomeRejected, err
	}

	seq.reset()
	gen, ok := c.model.start(seq)
	if !ok {
		c.release(r)
		r.cancel()
		c.logger.Warn().Str("sequence_id", seq.ID()).Msg("tutorial already running")
		return OutcomeRejected, ErrAlreadyRunning
	}
	r.mu.Lock()
	r.gen = gen
	r.mu.Unlock()

	c.logger.Info().
		Str("sequence_id", seq.ID()).
		Int("steps", seq.StepCount()).
		Int("start_step", startStep).
		Msg("tutorial started")
	c.events.emit(Event{Type: EventTutorialStarted, SequenceID: seq.ID(), Sequence: seq})

	c.view.Show()
	c.view.SetProgress(0)

	done := false
	for i := 0; i < startStep && !done; i++ {
		switch c.model.advanceFor(gen) {
		case advanceDone:
			done = true
		case advanceStale:
			i = startStep
		}
	}

	return c.execute(r, done)
}

func (c *Controller) reserve(ctx context.Context, seq *Sequence) (*run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrControllerClosed
	}
	if c.run != nil || c.model.IsActive() {
		c.logger.Warn().Str("sequence_id", seq.ID()).Msg("tutorial already running")
		return nil, ErrAlreadyRunning
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{seq: seq, ctx: runCtx, cancel: cancel}
	c.run = r
	return r, nil
}

// release forgets r as the current run and reports whether a newer run owns
// the presentation.
func (c *Controller) release(r *run) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == r {
		c.run = nil
	}
	return c.run != nil
}

func (c *Controller) currentRun() *run {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

// execute is the step loop. It stops when the model runs out of steps or the
// run context is cancelled. exhausted is set when fast-forwarding already
// completed the sequence.
func (c *Controller) execute(r *run, exhausted bool) (Outcome, error) {
	gen := r.generation()

	var failure error
	for !exhausted && r.ctx.Err() == nil {
		next := c.model.advanceFor(gen)
		if next == advanceDone {
			exhausted = true
			break
		}
		if next == advanceStale {
			break
		}

		step := c.model.CurrentStep()
		if step == nil {
			continue
		}
		if r.ctx.Err() != nil {
			break
		}

		if err := c.runStep(r, gen, step); err != nil {
			if r.ctx.Err() == nil {
				failure = err
			}
			break
		}
	}

	r.cleanupActive()

	if exhausted {
		r.cancel()
		if !c.release(r) {
			c.view.Hide()
		}
		c.logger.Info().Str("sequence_id", r.seq.ID()).Msg("tutorial completed")
		c.events.emit(Event{Type: EventTutorialCompleted, SequenceID: r.seq.ID()})
		return OutcomeCompleted, nil
	}

	switch {
	case errors.Is(failure, ErrInputClosed):
		c.logger.Info().Str("sequence_id", r.seq.ID()).Msg("input closed, cancelling tutorial")
	case failure != nil:
		c.logger.Error().Err(failure).Str("sequence_id", r.seq.ID()).Msg("tutorial step failed, cancelling")
	}
	c.finalizeCancel(r)

	r.mu.Lock()
	skipped := r.skippedAll
	r.mu.Unlock()
	if skipped {
		return OutcomeSkipped, nil
	}
	return OutcomeCancelled, nil
}

func (c *Controller) runStep(r *run, gen uint64, step Step) error {
	r.setActive(step)
	if a, ok := step.(activator); ok {
		a.activate()
	}

	c.logger.Debug().
		Str("sequence_id", r.seq.ID()).
		Str("step_id", step.ID()).
		Str("kind", string(step.Kind())).
		Msg("step started")

	if err := sleep(r.ctx, step.DelayBefore()); err != nil {
		return err
	}
	if err := c.waitWhilePaused(r.ctx); err != nil {
		return err
	}
	if err := step.Execute(r.ctx, c.view); err != nil {
		return err
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	c.model.completeCurrentStepFor(gen)
	c.view.SetProgress(c.model.Progress())

	if err := sleep(r.ctx, step.DelayAfter()); err != nil {
		return err
	}

	r.cleanupActive()
	c.view.ClearHighlight()
	c.view.HidePointer()

	c.logger.Debug().
		Str("sequence_id", r.seq.ID()).
		Str("step_id", step.ID()).
		Str("state", string(step.State())).
		Msg("step finished")
	return nil
}

// waitWhilePaused suspends in short intervals while the model is paused.
func (c *Controller) waitWhilePaused(ctx context.Context) error {
	for c.model.IsPaused() {
		if err := sleep(ctx, c.pollInterval); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// finalizeCancel moves the model to Cancelled, raises the cancelled event and
// hides the overlay, once per run. It reports whether this call did so.
func (c *Controller) finalizeCancel(r *run) bool {
	cancelled := false
	r.finalize.Do(func() {
		r.cancel()
		r.cleanupCurrent(c.model.currentStepFor(r.generation()))
		newer := c.release(r)

		if !c.model.cancelFor(r.generation()) {
			return
		}
		cancelled = true

		c.logger.Info().Str("sequence_id", r.seq.ID()).Msg("tutorial cancelled")
		c.events.emit(Event{Type: EventTutorialCancelled, SequenceID: r.seq.ID()})

		if !newer {
			c.view.Hide()
		}
	})
	return cancelled
}

// SkipCurrentStep skips the active step if its policy allows it, releasing
// its wait.
func (c *Controller) SkipCurrentStep() bool {
	step := c.model.CurrentStep()
	if step == nil {
		return false
	}
	if !step.CanSkip() {
		c.logger.Debug().Str("step_id", step.ID()).Msg("step cannot be skipped")
		return false
	}
	if !step.Skip() {
		return false
	}
	c.logger.Debug().Str("step_id", step.ID()).Msg("step skipped")
	return true
}

// SkipAll cancels the run and records the sequence as completed so it is not
// offered again. It is rejected when the sequence does not allow it.
func (c *Controller) SkipAll() bool {
	r := c.currentRun()
	seq := c.model.CurrentSequence()
	if r == nil || seq == nil {
		return false
	}
	if !seq.CanSkipAll() {
		c.logger.Warn().Str("sequence_id", seq.ID()).Msg("sequence cannot be skipped")
		return false
	}

	r.mu.Lock()
	r.skippedAll = true
	r.mu.Unlock()

	if !c.Cancel() {
		return false
	}

	c.model.MarkSequenceCompleted(seq.ID())
	c.logger.Info().Str("sequence_id", seq.ID()).Msg("tutorial skipped")
	c.events.emit(Event{Type: EventTutorialCompleted, SequenceID: seq.ID()})
	return true
}

// Pause stops the run from entering its next step until Resume. A step that
// is already waiting keeps waiting.
func (c *Controller) Pause() bool {
	return c.model.Pause()
}

// Resume continues a paused run. It is a no-op otherwise.
func (c *Controller) Resume() bool {
	return c.model.Resume()
}

// Cancel stops the active run: the run context is cancelled, the active step
// is cleaned up, the model moves to Cancelled, the cancelled event fires and
// the overlay is hidden. It returns false when nothing is running.
func (c *Controller) Cancel() bool {
	r := c.currentRun()
	if r == nil {
		return false
	}
	return c.finalizeCancel(r)
}

// Close cancels any run and detaches from the model.
func (c *Controller) Close() error {
	c.Cancel()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if err := c.model.Unsubscribe(c.subscriberID); err != nil && !errors.Is(err, ErrSubscriberNotFound) {
		return err
	}
	return nil
}

func (c *Controller) IsRunning() bool { return c.model.IsActive() }
func (c *Controller) IsPaused() bool  { return c.model.IsPaused() }

func (c *Controller) CurrentStepIndex() int { return c.model.CurrentStepIndex() }

// CurrentSequenceID returns the running sequence id, or "".
func (c *Controller) CurrentSequenceID() string {
	if seq := c.model.CurrentSequence(); seq != nil {
		return seq.ID()
	}
	return ""
}

func (c *Controller) Progress() float64 { return c.model.Progress() }

func (c *Controller) IsSequenceCompleted(id string) bool {
	return c.model.IsSequenceCompleted(id)
}

// CompletedSequences returns ids for an external store to persist.
func (c *Controller) CompletedSequences() []string {
	return c.model.CompletedSequences()
}

// LoadCompletionData restores ids previously returned by CompletedSequences.
func (c *Controller) LoadCompletionData(ids []string) {
	c.model.LoadCompletionData(ids)
}

func (c *Controller) onModelEvent(e Event) {
	if e.Type == EventStepChanged {
		c.events.emit(e)
	}
}

func sortByPriority(list []*Sequence) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority() != list[j].Priority() {
			return list[i].Priority() > list[j].Priority()
		}
		return list[i].ID() < list[j].ID()
	})
}
