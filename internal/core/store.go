// Package core provides the runtime of the action store.
// This includes the Store, its dispatch loop, effect supervision and update
// fan-out to subscribers and publishers.
// Dependencies: internal/primitives, logging.
//go:generate go test ./... -race

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/loginflow/internal/primitives"
	"github.com/comalice/loginflow/logging"
)

var (
	ErrStopped   = errors.New("store stopped")
	ErrQueueFull = errors.New("action queue full (backpressure)")
)

// DefaultQueueSize is the action queue buffer used when WithQueueSize is absent.
const DefaultQueueSize = 1000

// Option applies configuration to Store via functional options pattern.
type Option[S any] func(*Store[S])

// Store holds one state value and serializes every change to it through a
// single dispatch loop. Thread-safe for concurrent Dispatch/Send from
// multiple goroutines.
type Store[S any] struct {
	id      string
	reducer primitives.Reducer[S]
	reduce  primitives.Reducer[S] // reducer wrapped in middlewares, set on Start
	logger  logging.Logger

	mu      sync.RWMutex
	state   S
	seq     uint64
	started bool

	queue    chan primitives.Action
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	group    *errgroup.Group

	middlewares []Middleware[S]
	effects     []Effect[S]
	effectBoxes []*mailbox[Update[S]]
	publisher   UpdatePublisher[S]
	sources     []ActionSource

	subsMu     sync.Mutex
	subs       map[uint64]*mailbox[Update[S]]
	nextSub    uint64
	subsClosed bool
}

// NewStore creates a Store holding initial and reducing with reducer.
func NewStore[S any](reducer primitives.Reducer[S], initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		id:       uuid.NewString(),
		reducer:  reducer,
		logger:   logging.NoOpLogger{},
		state:    initial,
		queue:    make(chan primitives.Action, DefaultQueueSize),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		subs:     make(map[uint64]*mailbox[Update[S]]),
	}

	// Apply functional options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the store identifier used in logs and published updates.
func (s *Store[S]) ID() string { return s.id }

// Start composes the middlewares, launches every effect and action source,
// then starts the dispatch loop.
// Idempotent while running; a stopped store cannot be restarted.
func (s *Store[S]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return ErrStopped
	default:
	}
	if s.started {
		return nil
	}
	s.started = true

	reduce := s.reducer
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		reduce = s.middlewares[i](reduce)
	}
	s.reduce = reduce

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	initial := s.state
	for _, effect := range s.effects {
		box := newMailbox[Update[S]]()
		s.effectBoxes = append(s.effectBoxes, box)
		g.Go(func() error {
			defer box.abandon()
			err := effect.Run(gctx, initial, box.Out(), s)
			if err != nil && !isShutdown(err) {
				s.logger.Error("effect failed", "store_id", s.id, "error", err)
				return fmt.Errorf("effect %T: %w", effect, err)
			}
			return nil
		})
	}

	for _, src := range s.sources {
		g.Go(func() error {
			return s.drain(gctx, src)
		})
	}

	go s.loop()

	s.logger.Debug("store started", "store_id", s.id, "effects", len(s.effects), "sources", len(s.sources))
	return nil
}

// drain forwards actions from src until it closes or the store stops.
func (s *Store[S]) drain(ctx context.Context, src ActionSource) error {
	ch := src.Actions()
	for {
		select {
		case a, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Dispatch(ctx, a); err != nil {
				if isShutdown(err) {
					return nil
				}
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// loop is the private dispatch goroutine.
// Reduces queued actions one at a time until shutdown signal.
func (s *Store[S]) loop() {
	defer close(s.loopDone)
	for {
		select {
		case a := <-s.queue:
			s.apply(a)
		case <-s.done:
			return
		}
	}
}

// apply reduces a single action and fans the update out.
func (s *Store[S]) apply(a primitives.Action) {
	s.mu.Lock()
	prev := s.state
	next := s.reduce(prev, a)
	s.state = next
	s.seq++
	u := Update[S]{
		Seq:       s.seq,
		Action:    a,
		Previous:  prev,
		State:     next,
		Timestamp: time.Now(),
	}
	s.mu.Unlock()

	s.logger.Debug("action reduced", "store_id", s.id, "action", a.Type, "seq", u.Seq)

	for _, box := range s.effectBoxes {
		box.Push(u)
	}

	s.subsMu.Lock()
	for _, box := range s.subs {
		box.Push(u)
	}
	s.subsMu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.Publish(context.Background(), u); err != nil {
			s.logger.Warn("publish failed", "store_id", s.id, "action", a.Type, "error", err)
		}
	}
}

// Dispatch enqueues an action, blocking until it is accepted, ctx ends or
// the store stops. Actions dispatched before Start are reduced once it runs.
func (s *Store[S]) Dispatch(ctx context.Context, action primitives.Action) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}
	select {
	case s.queue <- action:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send enqueues an action without blocking.
// Returns ErrQueueFull on backpressure.
func (s *Store[S]) Send(action primitives.Action) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}
	select {
	case s.queue <- action:
		return nil
	default:
		return ErrQueueFull
	}
}

// State returns the current state (thread-safe snapshot).
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Seq returns the number of reductions performed so far.
func (s *Store[S]) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Subscribe returns an ordered, lossless stream of updates applied after the
// call. The stream is closed on Stop, after pending updates are delivered, or
// immediately by the returned cancel func. Callers must either read the
// stream until it closes or cancel.
func (s *Store[S]) Subscribe() (<-chan Update[S], func()) {
	box := newMailbox[Update[S]]()

	s.subsMu.Lock()
	if s.subsClosed {
		s.subsMu.Unlock()
		box.seal()
		return box.Out(), func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = box
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
		box.abandon()
	}
	return box.Out(), cancel
}

// Stop signals graceful shutdown.
// The dispatch loop exits after the current action, effects are cancelled
// and awaited, subscriber streams are closed and the publisher is closed.
// Safe to call multiple times; only the first call reports effect errors.
func (s *Store[S]) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		close(s.done)
		s.mu.Unlock()

		if started {
			<-s.loopDone
			s.cancel()
			for _, box := range s.effectBoxes {
				box.abandon()
			}
			err = s.group.Wait()
		}

		s.subsMu.Lock()
		s.subsClosed = true
		for id, box := range s.subs {
			box.seal()
			delete(s.subs, id)
		}
		s.subsMu.Unlock()

		if s.publisher != nil {
			if cerr := s.publisher.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close publisher: %w", cerr)
			}
		}
		s.logger.Debug("store stopped", "store_id", s.id, "seq", s.Seq())
	})
	return err
}

func isShutdown(err error) bool {
	return errors.Is(err, ErrStopped) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
