// Package core provides the store runtime.
// Options for configuring Store instances.
package core

import (
	"github.com/comalice/loginflow/internal/primitives"
	"github.com/comalice/loginflow/logging"
)

// WithQueueSize configures the action queue buffer size.
func WithQueueSize[S any](size int) Option[S] {
	return func(s *Store[S]) {
		if size > 0 {
			s.queue = make(chan primitives.Action, size)
		}
	}
}

// WithLogger configures the Store with a Logger.
func WithLogger[S any](l logging.Logger) Option[S] {
	return func(s *Store[S]) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithID overrides the generated store ID.
func WithID[S any](id string) Option[S] {
	return func(s *Store[S]) {
		if id != "" {
			s.id = id
		}
	}
}

// WithMiddleware appends reducer middlewares. The first one registered is
// the outermost.
func WithMiddleware[S any](mw ...Middleware[S]) Option[S] {
	return func(s *Store[S]) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// WithEffect registers effects started alongside the dispatch loop.
func WithEffect[S any](effects ...Effect[S]) Option[S] {
	return func(s *Store[S]) {
		s.effects = append(s.effects, effects...)
	}
}

// WithPublisher configures the Store with an UpdatePublisher.
func WithPublisher[S any](p UpdatePublisher[S]) Option[S] {
	return func(s *Store[S]) {
		s.publisher = p
	}
}

// WithActionSource configures the Store to drain src into its queue.
func WithActionSource[S any](src ActionSource) Option[S] {
	return func(s *Store[S]) {
		if src != nil {
			s.sources = append(s.sources, src)
		}
	}
}
