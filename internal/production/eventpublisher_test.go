// Tests for ChannelPublisher delivery and Store integration.
package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/loginflow/internal/core"
	"github.com/comalice/loginflow/internal/primitives"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan PublishedUpdate[int], 10)
	p := NewChannelPublisher[int]("test-store", ch)

	u := core.Update[int]{Seq: 1, Action: primitives.NewAction("test-action", "data"), State: 3}
	require.NoError(t, p.Publish(context.Background(), u))

	select {
	case got := <-ch:
		assert.Equal(t, u, got.Update)
		assert.Equal(t, "test-store", got.Metadata.Source)
		assert.Equal(t, "test-action", got.Metadata.Action)
		assert.False(t, got.Metadata.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		t.Error("No update delivered")
	}
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan PublishedUpdate[int], 1)
	p := NewChannelPublisher[int]("test", ch)
	ch <- PublishedUpdate[int]{} // Fill buffer

	err := p.Publish(context.Background(), core.Update[int]{Seq: 2})
	assert.NoError(t, err, "full channel drops silently")
	assert.Len(t, ch, 1)
}

func TestChannelPublisher_Close(t *testing.T) {
	ch := make(chan PublishedUpdate[int], 1)
	p := NewChannelPublisher[int]("test", ch)

	require.NoError(t, p.Close())
	_, open := <-ch
	assert.False(t, open)
}

func TestChannelPublisher_Integration(t *testing.T) {
	publishCh := make(chan PublishedUpdate[int], 10)
	reducer := func(s int, a primitives.Action) int { return s + 1 }
	s := core.NewStore(reducer, 0, core.WithPublisher[int](NewChannelPublisher[int]("integration", publishCh)))
	require.NoError(t, s.Start())

	require.NoError(t, s.Send(primitives.NewAction("TICK", nil)))

	select {
	case got := <-publishCh:
		assert.Equal(t, "TICK", got.Metadata.Action)
		assert.Equal(t, 1, got.Update.State)
	case <-time.After(time.Second):
		t.Error("No published update received")
	}

	require.NoError(t, s.Stop())
	_, open := <-publishCh
	assert.False(t, open, "store closes its publisher on stop")
}
