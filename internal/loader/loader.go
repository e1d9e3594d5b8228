// Package loader fetches one remote resource per key and exposes its uniform
// loading/error/value state.
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"catalog/storefront/internal/domain"

	log "github.com/sirupsen/logrus"
)

// State is the snapshot of a loader. At most one of Loading, Ready and Err
// describes it: a settled state never has Loading set, a failed one has no value.
type State[T any] struct {
	Value   T
	Ready   bool
	Loading bool
	Err     error
}

// Message returns the human readable error message, or "" when there is none.
func (s State[T]) Message() string {
	return domain.Message(s.Err)
}

// Pending is the state reported for a key that was not issued yet.
func Pending[T any]() State[T] {
	return State[T]{Loading: true}
}

type FetchFunc[K comparable, T any] func(ctx context.Context, key K) (T, error)

type listener struct {
	id int
	fn func()
}

// Loader owns the state of one resource. Load with a new key starts a fetch;
// results of fetches issued for an older key are discarded when they arrive.
// A zero key means "no key": nothing is fetched and the state stays idle.
type Loader[K comparable, T any] struct {
	name    string
	fetch   FetchFunc[K, T]
	timeout time.Duration
	release func(T)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	key        K
	gen        uint64
	state      State[T]
	settled    chan struct{}
	closed     bool
	listeners  []listener
	listenerID int
}

func New[K comparable, T any](name string, timeout time.Duration, fetch FetchFunc[K, T]) *Loader[K, T] {
	ctx, cancel := context.WithCancel(context.Background())

	return &Loader[K, T]{
		name:    name,
		fetch:   fetch,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		settled: closedChan(),
	}
}

// WithRelease registers fn to dispose of values the loader stops holding:
// on key change, on Close, and for stale results that were never published.
func (l *Loader[K, T]) WithRelease(fn func(T)) *Loader[K, T] {
	l.release = fn
	return l
}

func (l *Loader[K, T]) Name() string {
	return l.name
}

// Key returns the key the current state belongs to.
func (l *Loader[K, T]) Key() K {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

// Load switches the loader to key. Loading the current key again is a no-op.
func (l *Loader[K, T]) Load(key K) {
	var zero K

	l.mu.Lock()
	if l.closed || key == l.key {
		l.mu.Unlock()
		return
	}

	previous := l.state
	l.gen++
	gen := l.gen
	l.key = key
	closeOnce(l.settled)

	if key == zero {
		l.state = State[T]{}
		l.settled = closedChan()
	} else {
		l.state = Pending[T]()
		l.settled = make(chan struct{})
	}
	l.mu.Unlock()

	if previous.Ready {
		l.releaseValue(previous.Value)
	}

	if key != zero {
		log.Debugf("Fetching %s for %v", l.name, key)
		go l.run(gen, key)
	}

	l.notify()
}

// Clear drops the key; equivalent to Load with the zero key.
func (l *Loader[K, T]) Clear() {
	var zero K
	l.Load(zero)
}

// State returns the current snapshot.
func (l *Loader[K, T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// StateFor returns the state if key is the current key. For any other
// non-zero key the fetch has not been issued yet, so the result is Pending.
func (l *Loader[K, T]) StateFor(key K) State[T] {
	var zero K

	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case key == l.key:
		return l.state
	case key == zero:
		return State[T]{}
	default:
		return Pending[T]()
	}
}

// Wait blocks until the current key settles or ctx is done.
func (l *Loader[K, T]) Wait(ctx context.Context) (State[T], error) {
	for {
		l.mu.Lock()
		state, settled := l.state, l.settled
		l.mu.Unlock()

		if !state.Loading {
			return state, nil
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// OnChange registers fn to run after every state transition. fn runs on the
// goroutine that caused the transition, never under the loader lock.
func (l *Loader[K, T]) OnChange(fn func()) (unsubscribe func()) {
	l.mu.Lock()
	l.listenerID++
	id := l.listenerID
	l.listeners = append(l.listeners, listener{id: id, fn: fn})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, ls := range l.listeners {
			if ls.id == id {
				l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close unmounts the loader: the held value is released, in-flight fetches
// are cancelled and their results dropped.
func (l *Loader[K, T]) Close() {
	var zero K

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.gen++
	previous := l.state
	l.key = zero
	l.state = State[T]{}
	l.listeners = nil
	closeOnce(l.settled)
	l.mu.Unlock()

	l.cancel()

	if previous.Ready {
		l.releaseValue(previous.Value)
	}
}

func (l *Loader[K, T]) run(gen uint64, key K) {
	ctx, cancel := l.ctx, context.CancelFunc(func() {})
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(l.ctx, l.timeout)
	}

	value, err := l.fetch(ctx, key)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var timeoutErr *domain.TimeoutError
		if !errors.As(err, &timeoutErr) {
			err = &domain.TimeoutError{After: l.timeout}
		}
	}
	cancel()

	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		log.Debugf("Discarding stale %s result for %v", l.name, key)
		if err == nil {
			l.releaseValue(value)
		}
		return
	}

	if err != nil {
		l.state = State[T]{Err: err}
	} else {
		l.state = State[T]{Value: value, Ready: true}
	}
	closeOnce(l.settled)
	l.mu.Unlock()

	if err != nil {
		log.Warnf("❌ Failed to load %s %v: %v", l.name, key, err)
	}

	l.notify()
}

func (l *Loader[K, T]) notify() {
	l.mu.Lock()
	listeners := make([]listener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, ls := range listeners {
		ls.fn()
	}
}

func (l *Loader[K, T]) releaseValue(value T) {
	if l.release != nil {
		l.release(value)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
