package core

import "sync"

// mailbox is an unbounded FIFO between the dispatch loop and one consumer.
// Push never blocks on a slow consumer, so a consumer that dispatches back
// into the store cannot stall the loop.
type mailbox[T any] struct {
	in   chan T
	out  chan T
	quit chan struct{}

	sealOnce sync.Once
	quitOnce sync.Once
}

func newMailbox[T any]() *mailbox[T] {
	m := &mailbox[T]{
		in:   make(chan T),
		out:  make(chan T),
		quit: make(chan struct{}),
	}
	go m.pump()
	return m
}

func (m *mailbox[T]) pump() {
	defer close(m.out)

	in := m.in
	var queue []T
	for {
		if in == nil && len(queue) == 0 {
			return
		}
		var out chan T
		var next T
		if len(queue) > 0 {
			out = m.out
			next = queue[0]
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, v)
		case out <- next:
			var zero T
			queue[0] = zero
			queue = queue[1:]
		case <-m.quit:
			return
		}
	}
}

// Push appends v. It is a no-op once the mailbox has been abandoned.
// Push must not be called after seal.
func (m *mailbox[T]) Push(v T) {
	select {
	case m.in <- v:
	case <-m.quit:
	}
}

// Out is the consumer end. It is closed after seal once the backlog is
// delivered, or immediately on abandon.
func (m *mailbox[T]) Out() <-chan T { return m.out }

// seal stops intake; pending items are still delivered.
func (m *mailbox[T]) seal() {
	m.sealOnce.Do(func() { close(m.in) })
}

// abandon drops pending items and closes Out.
func (m *mailbox[T]) abandon() {
	m.quitOnce.Do(func() { close(m.quit) })
}
