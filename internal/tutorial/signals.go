package tutorial

import (
	"context"
	"errors"
	"sync"
)

// ErrInputClosed is returned by waits once the input source is gone and
// nothing queued can satisfy them.
var ErrInputClosed = errors.New("input closed")

// maxQueuedInputs bounds the inputs kept while nothing waits.
const maxQueuedInputs = 16

// InputSignals is a waiter registry presentation implementations can embed to
// satisfy WaitForTap and WaitForTargetClick. Input handlers call NotifyTap,
// NotifyTargetClicked or ReleaseAll from any goroutine.
//
// A click on a target also counts as a generic tap.
//
// By default input arriving while nothing waits is dropped. After
// QueueUnclaimed it is kept, oldest first, and handed to the next wait it can
// satisfy. CloseInput marks the source as gone: waits that nothing queued can
// satisfy then fail with ErrInputClosed.
type InputSignals struct {
	mu      sync.Mutex
	taps    []chan struct{}
	targets map[string][]chan struct{}

	queue  bool
	queued []string // clicked target IDs; "" is a plain tap
	closed bool
	done   chan struct{}
}

// QueueUnclaimed keeps taps and clicks that arrive while no waiter exists.
func (s *InputSignals) QueueUnclaimed() {
	s.mu.Lock()
	s.queue = true
	s.mu.Unlock()
}

// CloseInput releases current waiters with ErrInputClosed and makes later
// waits fail the same way once the queue cannot satisfy them.
func (s *InputSignals) CloseInput() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.closedChan())
}

// WaitForTap blocks until the next tap, target click or release.
func (s *InputSignals) WaitForTap(ctx context.Context) error {
	s.mu.Lock()
	if len(s.queued) > 0 {
		s.queued = s.queued[1:]
		s.mu.Unlock()
		return nil
	}
	if s.closed {
		s.mu.Unlock()
		return ErrInputClosed
	}
	ch := make(chan struct{})
	s.taps = append(s.taps, ch)
	done := s.closedChan()
	s.mu.Unlock()

	return s.await(ctx, ch, done)
}

// WaitForTargetClick blocks until targetID is clicked or waiters are released.
// A queued click on targetID satisfies it at once; queued input ahead of that
// click is discarded.
func (s *InputSignals) WaitForTargetClick(ctx context.Context, targetID string) error {
	s.mu.Lock()
	for i, id := range s.queued {
		if id == targetID {
			s.queued = s.queued[i+1:]
			s.mu.Unlock()
			return nil
		}
	}
	if s.closed {
		s.mu.Unlock()
		return ErrInputClosed
	}
	ch := make(chan struct{})
	if s.targets == nil {
		s.targets = make(map[string][]chan struct{})
	}
	s.targets[targetID] = append(s.targets[targetID], ch)
	done := s.closedChan()
	s.mu.Unlock()

	return s.await(ctx, ch, done)
}

// NotifyTap resolves every pending tap waiter.
func (s *InputSignals) NotifyTap() {
	s.mu.Lock()
	taps := s.taps
	s.taps = nil
	if len(taps) == 0 {
		s.enqueue("")
	}
	s.mu.Unlock()

	closeAll(taps)
}

// NotifyTargetClicked resolves the waiters for targetID and every tap waiter.
// It reports whether any target waiter was pending.
func (s *InputSignals) NotifyTargetClicked(targetID string) bool {
	s.mu.Lock()
	waiters := s.targets[targetID]
	delete(s.targets, targetID)
	taps := s.taps
	s.taps = nil
	if len(waiters) == 0 && len(taps) == 0 {
		s.enqueue(targetID)
	}
	s.mu.Unlock()

	closeAll(waiters)
	closeAll(taps)
	return len(waiters) > 0
}

// Queued returns the number of inputs waiting for a waiter.
func (s *InputSignals) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queued)
}

// enqueue must be called with s.mu held.
func (s *InputSignals) enqueue(targetID string) {
	if !s.queue || s.closed {
		return
	}
	if len(s.queued) == maxQueuedInputs {
		s.queued = s.queued[1:]
	}
	s.queued = append(s.queued, targetID)
}

// closedChan must be called with s.mu held.
func (s *InputSignals) closedChan() chan struct{} {
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// ReleaseAll resolves every pending waiter.
func (s *InputSignals) ReleaseAll() {
	s.mu.Lock()
	taps := s.taps
	targets := s.targets
	s.taps = nil
	s.targets = nil
	s.mu.Unlock()

	closeAll(taps)
	for _, waiters := range targets {
		closeAll(waiters)
	}
}

// Pending returns the number of waiters still blocked.
func (s *InputSignals) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.taps)
	for _, waiters := range s.targets {
		n += len(waiters)
	}
	return n
}

// PendingTargets returns the targets that currently have waiters.
func (s *InputSignals) PendingTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make([]string, 0, len(s.targets))
	for id, waiters := range s.targets {
		if len(waiters) > 0 {
			targets = append(targets, id)
		}
	}
	return targets
}

func (s *InputSignals) await(ctx context.Context, ch, closed chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-closed:
		select {
		case <-ch:
			return nil
		default:
		}
		s.forget(ch)
		return ErrInputClosed
	case <-ctx.Done():
		s.forget(ch)
		return ctx.Err()
	}
}

func (s *InputSignals) forget(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.taps = removeChan(s.taps, ch)
	for id, waiters := range s.targets {
		waiters = removeChan(waiters, ch)
		if len(waiters) == 0 {
			delete(s.targets, id)
		} else {
			s.targets[id] = waiters
		}
	}
}

func removeChan(list []chan struct{}, ch chan struct{}) []chan struct{} {
	for i, c := range list {
		if c == ch {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func closeAll(chans []chan struct{}) {
	for _, ch := range chans {
		close(ch)
	}
}
