package core

import (
	"context"
	"time"

	"github.com/comalice/loginflow/internal/primitives"
)

// Update records one reduction performed by the dispatch loop.
type Update[S any] struct {
	Seq       uint64
	Action    primitives.Action
	Previous  S
	State     S
	Timestamp time.Time
}

// Dispatcher accepts actions on behalf of a store.
type Dispatcher interface {
	Dispatch(ctx context.Context, action primitives.Action) error
}

// Effect observes the update stream and dispatches further actions.
//
// Run is called once per Start on its own goroutine. initial is the state at
// Start. updates delivers every reduction in order and is closed on Stop.
// Run must return when ctx is done; returning ErrStopped or a context error is
// treated as a clean exit.
type Effect[S any] interface {
	Run(ctx context.Context, initial S, updates <-chan Update[S], dispatch Dispatcher) error
}

// EffectFunc adapts a function to Effect.
type EffectFunc[S any] func(ctx context.Context, initial S, updates <-chan Update[S], dispatch Dispatcher) error

func (f EffectFunc[S]) Run(ctx context.Context, initial S, updates <-chan Update[S], dispatch Dispatcher) error {
	return f(ctx, initial, updates, dispatch)
}

// Middleware decorates the reducer. Middlewares must keep the reducer pure
// with respect to state; observation side effects (logs, metrics) are fine.
type Middleware[S any] func(next primitives.Reducer[S]) primitives.Reducer[S]

// UpdatePublisher receives every update after it is applied. Publish is
// called on the dispatch loop and must not block.
type UpdatePublisher[S any] interface {
	Publish(ctx context.Context, update Update[S]) error
	Close() error
}

// ActionSource feeds externally produced actions into a store.
type ActionSource interface {
	Actions() <-chan primitives.Action
}
