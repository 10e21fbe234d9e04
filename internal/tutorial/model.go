package tutorial

import (
	"sort"
	"sync"
)

// State is the run state of the tutorial system.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Model is the authoritative tutorial state machine. It holds no scheduling
// logic; the Controller drives it.
//
// The current sequence is non-nil exactly while the state is Running or
// Paused, and the step index is -1 outside a run.
type Model struct {
	mu                 sync.RWMutex
	state              State
	current            *Sequence
	index              int
	generation         uint64
	completedSequences map[string]struct{}
	completedSteps     map[string]struct{}

	events *notifier
}

// NewModel creates an idle model.
func NewModel() *Model {
	return &Model{
		state:              StateIdle,
		index:              -1,
		completedSequences: make(map[string]struct{}),
		completedSteps:     make(map[string]struct{}),
		events:             newNotifier(),
	}
}

// Subscribe registers a subscriber for model notifications under id.
func (m *Model) Subscribe(id string, sub Subscriber) error {
	return m.events.subscribe(id, sub)
}

// SubscribeFunc registers a function for model notifications under id.
func (m *Model) SubscribeFunc(id string, fn func(Event)) error {
	if fn == nil {
		return ErrInvalidSubscriber
	}
	return m.events.subscribe(id, SubscriberFunc(fn))
}

// Unsubscribe removes the subscriber registered under id.
func (m *Model) Unsubscribe(id string) error {
	return m.events.unsubscribe(id)
}

func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsRunning reports whether a run is executing (not paused).
func (m *Model) IsRunning() bool {
	return m.State() == StateRunning
}

func (m *Model) IsPaused() bool {
	return m.State() == StatePaused
}

// IsActive reports whether a run is in progress, paused or not.
func (m *Model) IsActive() bool {
	s := m.State()
	return s == StateRunning || s == StatePaused
}

func (m *Model) CurrentSequence() *Sequence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Model) CurrentStepIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// CurrentStep returns the step at the current index, or nil.
func (m *Model) CurrentStep() Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Step(m.index)
}

// currentStepFor returns the current step while gen is the live run.
func (m *Model) currentStepFor(gen uint64) Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.generation != gen {
		return nil
	}
	return m.current.Step(m.index)
}

// Progress returns (index+1)/stepCount clamped to [0,1]; 0 without a run.
func (m *Model) Progress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.progressLocked()
}

func (m *Model) progressLocked() float64 {
	if m.current == nil || m.current.StepCount() == 0 {
		return 0
	}
	p := float64(m.index+1) / float64(m.current.StepCount())
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// StartSequence begins a fresh run of seq. It is rejected (returns false)
// while a run is Running or Paused.
func (m *Model) StartSequence(seq *Sequence) bool {
	_, ok := m.start(seq)
	return ok
}

func (m *Model) start(seq *Sequence) (uint64, bool) {
	if seq == nil {
		return 0, false
	}

	m.mu.Lock()
	if m.state == StateRunning || m.state == StatePaused {
		m.mu.Unlock()
		return 0, false
	}
	m.generation++
	gen := m.generation
	m.current = seq
	m.index = -1
	pending := m.setStateLocked(StateRunning)
	m.mu.Unlock()

	m.emitAll(pending)
	return gen, true
}

// NextStep advances the index. Past the last step it completes the sequence
// and returns false.
func (m *Model) NextStep() bool {
	m.mu.Lock()
	ok, pending := m.nextStepLocked()
	m.mu.Unlock()

	m.emitAll(pending)
	return ok
}

// advance is the result of advancing a specific run.
type advance int

const (
	advanceStale advance = iota // the run is over or was replaced
	advanceStep                 // a new current step
	advanceDone                 // the run just completed its sequence
)

// advanceFor advances only if gen is still the current, unfinished run.
func (m *Model) advanceFor(gen uint64) advance {
	m.mu.Lock()
	if m.generation != gen || m.current == nil {
		m.mu.Unlock()
		return advanceStale
	}
	ok, pending := m.nextStepLocked()
	m.mu.Unlock()

	m.emitAll(pending)
	if ok {
		return advanceStep
	}
	return advanceDone
}

func (m *Model) nextStepLocked() (bool, []Event) {
	if m.current == nil {
		return false, nil
	}

	m.index++
	if m.index >= m.current.StepCount() {
		return false, m.completeSequenceLocked()
	}

	return true, []Event{{
		Type:       EventStepChanged,
		SequenceID: m.current.ID(),
		StepIndex:  m.index,
		Step:       m.current.Step(m.index),
	}}
}

// CompleteCurrentStep records the current step id. It does not advance.
func (m *Model) CompleteCurrentStep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCurrentStepLocked()
}

func (m *Model) completeCurrentStepFor(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return
	}
	m.completeCurrentStepLocked()
}

func (m *Model) completeCurrentStepLocked() {
	if step := m.current.Step(m.index); step != nil {
		m.completedSteps[step.ID()] = struct{}{}
	}
}

// CompleteCurrentSequence records the current sequence as completed, clears
// the run and transitions to Completed.
func (m *Model) CompleteCurrentSequence() {
	m.mu.Lock()
	pending := m.completeSequenceLocked()
	m.mu.Unlock()

	m.emitAll(pending)
}

func (m *Model) completeSequenceLocked() []Event {
	var pending []Event
	if m.current != nil {
		id := m.current.ID()
		m.completedSequences[id] = struct{}{}
		pending = append(pending, Event{Type: EventSequenceCompleted, SequenceID: id})
	}

	m.current = nil
	m.index = -1
	return append(pending, m.setStateLocked(StateCompleted)...)
}

// Pause moves Running to Paused. It is a no-op in any other state.
func (m *Model) Pause() bool {
	return m.transition(StateRunning, StatePaused)
}

// Resume moves Paused to Running. It is a no-op in any other state.
func (m *Model) Resume() bool {
	return m.transition(StatePaused, StateRunning)
}

func (m *Model) transition(from, to State) bool {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return false
	}
	pending := m.setStateLocked(to)
	m.mu.Unlock()

	m.emitAll(pending)
	return true
}

// Cancel clears the run and transitions to Cancelled from any state.
func (m *Model) Cancel() {
	m.mu.Lock()
	pending := m.cancelLocked()
	m.mu.Unlock()

	m.emitAll(pending)
}

// cancelFor cancels only if gen is still the current, unfinished run.
func (m *Model) cancelFor(gen uint64) bool {
	m.mu.Lock()
	if m.generation != gen || m.current == nil {
		m.mu.Unlock()
		return false
	}
	pending := m.cancelLocked()
	m.mu.Unlock()

	m.emitAll(pending)
	return true
}

func (m *Model) cancelLocked() []Event {
	m.current = nil
	m.index = -1
	return m.setStateLocked(StateCancelled)
}

func (m *Model) IsSequenceCompleted(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.completedSequences[id]
	return ok
}

func (m *Model) IsStepCompleted(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.completedSteps[id]
	return ok
}

// MarkSequenceCompleted records id as completed without touching the run.
func (m *Model) MarkSequenceCompleted(id string) {
	if id == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedSequences[id] = struct{}{}
}

// CompletedSequences returns the completed sequence ids, sorted.
func (m *Model) CompletedSequences() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.completedSequences))
	for id := range m.completedSequences {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// CompletedSteps returns the completed step ids, sorted.
func (m *Model) CompletedSteps() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.completedSteps))
	for id := range m.completedSteps {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// LoadCompletionData replaces the completed-sequence set.
func (m *Model) LoadCompletionData(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completedSequences = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m.completedSequences[id] = struct{}{}
		}
	}
}

func (m *Model) setStateLocked(s State) []Event {
	if m.state == s {
		return nil
	}
	m.state = s
	return []Event{{Type: EventStateChanged, State: s}}
}

func (m *Model) emitAll(events []Event) {
	for _, e := range events {
		m.events.emit(e)
	}
}
