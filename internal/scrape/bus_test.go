package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusBroadcastsToAllSubscribers(t *testing.T) {
	t.Parallel()

	b := NewBus(4, zap.NewNop())
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(CommandRun)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cmd, err := s1.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, CommandRun, cmd)

	cmd, err = s2.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, CommandRun, cmd)
}

func TestBusCloseEndsSubscriptions(t *testing.T) {
	t.Parallel()

	b := NewBus(4, zap.NewNop())
	sub := b.Subscribe()
	b.Publish(CommandShutdown)
	b.Close()

	ctx := context.Background()

	// buffered command is still delivered
	cmd, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, CommandShutdown, cmd)

	_, err = sub.Recv(ctx)
	require.ErrorIs(t, err, ErrBusClosed)
}

func TestSubscribeAfterClose(t *testing.T) {
	t.Parallel()

	b := NewBus(4, zap.NewNop())
	b.Close()
	sub := b.Subscribe()

	_, err := sub.Recv(context.Background())
	require.ErrorIs(t, err, ErrBusClosed)
}

// A subscriber that falls behind loses its oldest commands but keeps its
// subscription; a fast sibling sees everything.
func TestBusLaggedSubscriberSkipsOldest(t *testing.T) {
	t.Parallel()

	b := NewBus(2, zap.NewNop())
	slow := b.Subscribe()

	b.Publish(CommandRun)      // buffered
	b.Publish(CommandRun)      // buffered, buffer now full
	b.Publish(CommandShutdown) // drops one Run

	b.Close()

	ctx := context.Background()
	var got []Command
	for {
		cmd, err := slow.Recv(ctx)
		if err != nil {
			require.ErrorIs(t, err, ErrBusClosed)
			break
		}
		got = append(got, cmd)
	}
	require.Equal(t, []Command{CommandRun, CommandShutdown}, got)
}

func TestRecvHonorsContext(t *testing.T) {
	t.Parallel()

	b := NewBus(1, zap.NewNop())
	sub := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
