// Package production provides production integrations: update publishing and
// Prometheus metrics.
package production

import (
	"context"
	"time"

	"github.com/comalice/loginflow/internal/core"
)

// UpdateMetadata describes where and when an update was published.
type UpdateMetadata struct {
	Source    string
	Action    string
	Timestamp time.Time
}

// PublishedUpdate bundles an update with its metadata for publishing.
type PublishedUpdate[S any] struct {
	Update   core.Update[S]
	Metadata UpdateMetadata
}

// ChannelPublisher forwards updates to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher[S any] struct {
	source string
	ch     chan<- PublishedUpdate[S]
}

// NewChannelPublisher creates a ChannelPublisher tagging updates with source.
func NewChannelPublisher[S any](source string, ch chan<- PublishedUpdate[S]) *ChannelPublisher[S] {
	return &ChannelPublisher[S]{source: source, ch: ch}
}

func (p *ChannelPublisher[S]) Publish(ctx context.Context, update core.Update[S]) error {
	msg := PublishedUpdate[S]{
		Update: update,
		Metadata: UpdateMetadata{
			Source:    p.source,
			Action:    update.Action.Type,
			Timestamp: time.Now(),
		},
	}
	select {
	case p.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher[S]) Close() error {
	close(p.ch)
	return nil
}
