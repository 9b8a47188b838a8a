package extensibility

import (
	"time"

	"github.com/comalice/loginflow/internal/primitives"
)

// ChannelActionSource is an ActionSource backed by a Go channel.
// Provides a simple way to feed external actions into a Store.
type ChannelActionSource struct {
	ch chan primitives.Action
}

// NewChannelActionSource creates a ChannelActionSource over ch.
// The store stops draining when ch is closed.
func NewChannelActionSource(ch chan primitives.Action) *ChannelActionSource {
	return &ChannelActionSource{ch: ch}
}

// Actions returns the receive-only channel for actions.
func (s *ChannelActionSource) Actions() <-chan primitives.Action {
	return s.ch
}

// ScriptedActionSource replays a fixed sequence of actions, one per interval.
// Useful for demos and for tests that mimic a user typing into a form.
type ScriptedActionSource struct {
	ch     chan primitives.Action
	script []primitives.Action
	ticker *time.Ticker
	stop   chan struct{}
}

// NewScriptedActionSource starts replaying script, emitting one action every d.
// The channel is closed once the script is exhausted or Stop is called.
func NewScriptedActionSource(d time.Duration, script ...primitives.Action) *ScriptedActionSource {
	s := &ScriptedActionSource{
		ch:     make(chan primitives.Action),
		script: script,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *ScriptedActionSource) run() {
	defer close(s.ch)
	defer s.ticker.Stop()
	for _, a := range s.script {
		select {
		case <-s.ticker.C:
		case <-s.stop:
			return
		}
		select {
		case s.ch <- a:
		case <-s.stop:
			return
		}
	}
}

// Actions returns the action channel.
func (s *ScriptedActionSource) Actions() <-chan primitives.Action {
	return s.ch
}

// Stop abandons the rest of the script and closes the channel.
// Must be called at most once.
func (s *ScriptedActionSource) Stop() {
	close(s.stop)
}
