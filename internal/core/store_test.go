package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/loginflow/internal/primitives"
)

type tally struct {
	Count int
	Last  string
}

func tallyReducer(s tally, a primitives.Action) tally {
	switch a.Type {
	case "add":
		s.Count++
		s.Last = a.Type
	case "reset":
		s = tally{Last: a.Type}
	}
	return s
}

func collect[S any](t *testing.T, ch <-chan Update[S], n int) []Update[S] {
	t.Helper()
	var got []Update[S]
	timeout := time.After(time.Second)
	for len(got) < n {
		select {
		case u, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed after %d of %d updates", len(got), n)
			}
			got = append(got, u)
		case <-timeout:
			t.Fatalf("timed out after %d of %d updates", len(got), n)
		}
	}
	return got
}

func TestStore_InitialState(t *testing.T) {
	s := NewStore(tallyReducer, tally{Count: 7})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, tally{Count: 7}, s.State())
	assert.NotEmpty(t, s.ID())
}

func TestStore_DispatchReducesInOrder(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())
	defer s.Stop()

	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, primitives.NewAction("add", nil)))
	require.NoError(t, s.Dispatch(ctx, primitives.NewAction("unknown", nil)))
	require.NoError(t, s.Dispatch(ctx, primitives.NewAction("add", nil)))

	got := collect(t, updates, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Equal(t, tally{}, got[0].Previous)
	assert.Equal(t, tally{Count: 1, Last: "add"}, got[0].State)
	assert.Equal(t, got[0].State, got[1].State, "unknown action is identity")
	assert.Equal(t, tally{Count: 2, Last: "add"}, got[2].State)
	assert.Equal(t, tally{Count: 2, Last: "add"}, s.State())
	assert.Equal(t, uint64(3), s.Seq())
}

func TestStore_DispatchBeforeStart(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	updates, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.Send(primitives.NewAction("add", nil)))
	require.NoError(t, s.Start())
	defer s.Stop()

	got := collect(t, updates, 1)
	assert.Equal(t, 1, got[0].State.Count)
}

func TestStore_QueueBackpressure(t *testing.T) {
	s := NewStore(tallyReducer, tally{}, WithQueueSize[tally](5))
	defer s.Stop()

	// Not started: nothing drains the queue.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Send(primitives.NewAction("add", nil)), "send %d", i)
	}
	assert.ErrorIs(t, s.Send(primitives.NewAction("overflow", nil)), ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Dispatch(ctx, primitives.NewAction("overflow", nil)), context.DeadlineExceeded)
}

func TestStore_GracefulShutdown(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	updates, _ := s.Subscribe()
	require.NoError(t, s.Start())

	require.NoError(t, s.Stop())

	assert.ErrorIs(t, s.Send(primitives.NewAction("add", nil)), ErrStopped)
	assert.ErrorIs(t, s.Dispatch(context.Background(), primitives.NewAction("add", nil)), ErrStopped)
	assert.ErrorIs(t, s.Start(), ErrStopped)

	_, open := <-updates
	assert.False(t, open, "subscriber stream closed on stop")

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscribing after stop yields a closed stream")

	// Multiple Stop idempotent
	assert.NoError(t, s.Stop())
}

func TestStore_StartIdempotent(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())
	defer s.Stop()

	var wg sync.WaitGroup
	const N = 50
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Dispatch(context.Background(), primitives.NewAction("add", nil)))
		}()
	}
	wg.Wait()

	got := collect(t, updates, N)
	for i, u := range got {
		assert.Equal(t, uint64(i+1), u.Seq)
		assert.Equal(t, i+1, u.State.Count)
	}
}

func TestStore_MiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware[tally] {
		return func(next primitives.Reducer[tally]) primitives.Reducer[tally] {
			return func(s tally, a primitives.Action) tally {
				trace = append(trace, name+">")
				s = next(s, a)
				trace = append(trace, "<"+name)
				return s
			}
		}
	}
	s := NewStore(tallyReducer, tally{}, WithMiddleware(mw("outer"), mw("inner")))
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())
	defer s.Stop()

	require.NoError(t, s.Send(primitives.NewAction("add", nil)))
	collect(t, updates, 1)

	assert.Equal(t, []string{"outer>", "inner>", "<inner", "<outer"}, trace)
}

func TestStore_EffectFeedsBack(t *testing.T) {
	// Resets the tally whenever it reaches 2.
	resetAtTwo := EffectFunc[tally](func(ctx context.Context, initial tally, updates <-chan Update[tally], d Dispatcher) error {
		for {
			select {
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				if u.State.Count == 2 {
					if err := d.Dispatch(ctx, primitives.NewAction("reset", nil)); err != nil {
						return err
					}
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	s := NewStore(tallyReducer, tally{}, WithEffect[tally](resetAtTwo))
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	require.NoError(t, s.Send(primitives.NewAction("add", nil)))
	require.NoError(t, s.Send(primitives.NewAction("add", nil)))

	got := collect(t, updates, 3)
	assert.Equal(t, "reset", got[2].Action.Type)
	assert.Equal(t, tally{Last: "reset"}, got[2].State)

	assert.NoError(t, s.Stop(), "cancellation is a clean exit")
}

func TestStore_EffectErrorReportedOnStop(t *testing.T) {
	boom := errors.New("boom")
	failing := EffectFunc[tally](func(ctx context.Context, initial tally, updates <-chan Update[tally], d Dispatcher) error {
		return boom
	})
	s := NewStore(tallyReducer, tally{}, WithEffect[tally](failing))
	require.NoError(t, s.Start())

	err := s.Stop()
	assert.ErrorIs(t, err, boom)
}

func TestStore_EffectSeesInitialState(t *testing.T) {
	seen := make(chan tally, 1)
	probe := EffectFunc[tally](func(ctx context.Context, initial tally, updates <-chan Update[tally], d Dispatcher) error {
		seen <- initial
		<-ctx.Done()
		return nil
	})
	s := NewStore(tallyReducer, tally{Count: 3}, WithEffect[tally](probe))
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case got := <-seen:
		assert.Equal(t, tally{Count: 3}, got)
	case <-time.After(time.Second):
		t.Fatal("effect not started")
	}
}

type sliceSource struct{ ch chan primitives.Action }

func (s sliceSource) Actions() <-chan primitives.Action { return s.ch }

func TestStore_ActionSource(t *testing.T) {
	src := sliceSource{ch: make(chan primitives.Action, 3)}
	src.ch <- primitives.NewAction("add", nil)
	src.ch <- primitives.NewAction("add", nil)
	close(src.ch)

	s := NewStore(tallyReducer, tally{}, WithActionSource[tally](src))
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())
	defer s.Stop()

	got := collect(t, updates, 2)
	assert.Equal(t, 2, got[1].State.Count)
}

type recordingPublisher struct {
	mu     sync.Mutex
	seqs   []uint64
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, u Update[tally]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seqs = append(p.seqs, u.Seq)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestStore_Publisher(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewStore(tallyReducer, tally{}, WithPublisher[tally](pub), WithID[tally]("tally-1"))
	updates, cancel := s.Subscribe()
	defer cancel()
	require.NoError(t, s.Start())

	require.NoError(t, s.Send(primitives.NewAction("add", nil)))
	require.NoError(t, s.Send(primitives.NewAction("add", nil)))
	collect(t, updates, 2)
	require.NoError(t, s.Stop())

	assert.Equal(t, "tally-1", s.ID())
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, pub.seqs)
	assert.True(t, pub.closed)
}

func TestStore_SubscriberCancel(t *testing.T) {
	s := NewStore(tallyReducer, tally{})
	updates, cancel := s.Subscribe()
	require.NoError(t, s.Start())
	defer s.Stop()

	cancel()
	require.NoError(t, s.Send(primitives.NewAction("add", nil)))

	select {
	case _, open := <-updates:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("cancelled stream not closed")
	}
}

func BenchmarkDispatch(b *testing.B) {
	s := NewStore(tallyReducer, tally{})
	if err := s.Start(); err != nil {
		b.Fatal(err)
	}
	defer s.Stop()

	ctx := context.Background()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := s.Dispatch(ctx, primitives.NewAction("add", nil)); err != nil {
			b.Fatal(err)
		}
	}
}
