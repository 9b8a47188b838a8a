// Package testutil replays action sequences against a store and records what
// it reduced, so effect behaviour can be asserted as a trace.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
)

// Target is the store surface the harness drives.
type Target[S any] interface {
	Start() error
	Stop() error
	Dispatch(ctx context.Context, action primitives.Action) error
	Subscribe() (<-chan core.Update[S], func())
	State() S
}

var _ Target[int] = (*core.Store[int])(nil)

// Options bound a recording: it ends once Count updates were seen or after
// Timeout, whichever comes first.
type Options struct {
	Timeout time.Duration
	Count   int
}

// DefaultOptions mirrors the budget used throughout the suites.
var DefaultOptions = Options{Timeout: 200 * time.Millisecond, Count: 10}

// Driver feeds a started store. It may block, e.g. on WaitForState.
type Driver[S any] func(ctx context.Context, store Target[S]) error

// Actions returns a Driver dispatching actions in order.
func Actions[S any](actions ...primitives.Action) Driver[S] {
	return func(ctx context.Context, store Target[S]) error {
		for _, a := range actions {
			if err := store.Dispatch(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}
}

// Sequence runs drivers one after another.
func Sequence[S any](drivers ...Driver[S]) Driver[S] {
	return func(ctx context.Context, store Target[S]) error {
		for _, d := range drivers {
			if err := d(ctx, store); err != nil {
				return err
			}
		}
		return nil
	}
}

// Delay returns a Driver that waits d.
func Delay[S any](d time.Duration) Driver[S] {
	return func(ctx context.Context, _ Target[S]) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Record starts store, runs drive and collects updates until opts is
// satisfied. The store is stopped before Record returns. A driver error
// fails the test.
func Record[S any](t testing.TB, store Target[S], drive Driver[S], opts Options) []core.Update[S] {
	t.Helper()
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions.Timeout
	}

	updates, cancel := store.Subscribe()
	defer cancel()
	if err := store.Start(); err != nil {
		t.Fatalf("start store: %v", err)
	}

	ctx, stop := context.WithTimeout(context.Background(), opts.Timeout)
	defer stop()

	driveErr := make(chan error, 1)
	if drive != nil {
		go func() { driveErr <- drive(ctx, store) }()
	}

	var got []core.Update[S]
loop:
	for opts.Count <= 0 || len(got) < opts.Count {
		select {
		case u, ok := <-updates:
			if !ok {
				break loop
			}
			got = append(got, u)
		case <-ctx.Done():
			break loop
		}
	}

	if err := store.Stop(); err != nil {
		t.Errorf("stop store: %v", err)
	}
	select {
	case err := <-driveErr:
		if err != nil && ctx.Err() == nil && !errors.Is(err, core.ErrStopped) {
			t.Errorf("driver: %v", err)
		}
	default:
	}
	return got
}

// RecordActions is Record reduced to the dispatched actions.
func RecordActions[S any](t testing.TB, store Target[S], drive Driver[S], opts Options) []primitives.Action {
	t.Helper()
	updates := Record(t, store, drive, opts)
	out := make([]primitives.Action, len(updates))
	for i, u := range updates {
		out[i] = u.Action
	}
	return out
}

// RecordStates is Record reduced to the state sequence, starting with the
// state the store held before the first update.
func RecordStates[S any](t testing.TB, store Target[S], drive Driver[S], opts Options) []S {
	t.Helper()
	first := store.State()
	updates := Record(t, store, drive, opts)
	out := make([]S, 0, len(updates)+1)
	out = append(out, first)
	for _, u := range updates {
		out = append(out, u.State)
	}
	return out
}

// WaitForState blocks until pred holds for the store's state.
func WaitForState[S any](ctx context.Context, store Target[S], pred func(S) bool) (S, error) {
	updates, cancel := store.Subscribe()
	defer cancel()

	if s := store.State(); pred(s) {
		return s, nil
	}
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				var zero S
				return zero, core.ErrStopped
			}
			if pred(u.State) {
				return u.State, nil
			}
		case <-ctx.Done():
			var zero S
			return zero, ctx.Err()
		}
	}
}

// Filter keeps the actions matched by any of the given predicates.
func Filter(actions []primitives.Action, keep ...func(primitives.Action) bool) []primitives.Action {
	out := []primitives.Action{}
	for _, a := range actions {
		for _, k := range keep {
			if k(a) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
