package tutorial

import (
	"sort"
	"sync"
	"time"
)

// EventType identifies a notification.
type EventType string

const (
	// Model notifications.
	EventStateChanged      EventType = "state_changed"
	EventStepChanged       EventType = "step_changed"
	EventSequenceCompleted EventType = "sequence_completed"

	// Controller notifications. The controller also re-emits EventStepChanged.
	EventTutorialStarted   EventType = "tutorial_started"
	EventTutorialCompleted EventType = "tutorial_completed"
	EventTutorialCancelled EventType = "tutorial_cancelled"
)

// Event carries the payload of a notification. Only the fields relevant to
// Type are set.
type Event struct {
	Type       EventType
	SequenceID string
	Sequence   *Sequence // EventTutorialStarted
	StepIndex  int       // EventStepChanged
	Step       Step      // EventStepChanged
	State      State     // EventStateChanged
	Timestamp  time.Time
}

// Subscriber receives events.
type Subscriber interface {
	OnTutorialEvent(Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(Event)

// OnTutorialEvent implements Subscriber.
func (f SubscriberFunc) OnTutorialEvent(e Event) { f(e) }

// notifier is a named subscriber registry. Delivery is synchronous, in
// subscription order, and never happens with the registry lock held.
type notifier struct {
	mu    sync.RWMutex
	seq   uint64
	subs  map[string]subscription
	clock func() time.Time
}

type subscription struct {
	order uint64
	sub   Subscriber
}

func newNotifier() *notifier {
	return &notifier{
		subs:  make(map[string]subscription),
		clock: time.Now,
	}
}

func (n *notifier) subscribe(id string, sub Subscriber) error {
	if id == "" {
		return ErrInvalidSubscriber
	}
	if sub == nil {
		return ErrInvalidSubscriber
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subs[id]; exists {
		return ErrSubscriberExists
	}
	n.seq++
	n.subs[id] = subscription{order: n.seq, sub: sub}
	return nil
}

func (n *notifier) unsubscribe(id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.subs[id]; !exists {
		return ErrSubscriberNotFound
	}
	delete(n.subs, id)
	return nil
}

func (n *notifier) emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = n.clock()
	}

	n.mu.RLock()
	subs := make([]subscription, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].order < subs[j].order })
	for _, s := range subs {
		s.sub.OnTutorialEvent(e)
	}
}
