package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishDispatchesByType(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var pings, pongs []int
	Subscribe(func(_ context.Context, e ping) { pings = append(pings, e.n) })
	Subscribe(func(_ context.Context, e pong) { pongs = append(pongs, e.n) })

	Publish(context.Background(), ping{1})
	Publish(context.Background(), pong{2})
	Publish(context.Background(), ping{3})

	require.Equal(t, []int{1, 3}, pings)
	require.Equal(t, []int{2}, pongs)
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	var got []string
	handler := func(tag string) Handler[ping] {
		return func(context.Context, ping) { got = append(got, tag) }
	}
	unsubA := SubscribeTo(b, handler("a"))
	SubscribeTo(b, handler("b"))

	b.emit(context.Background(), ping{})
	unsubA()
	unsubA()
	b.emit(context.Background(), ping{})

	require.Equal(t, []string{"a", "b", "b"}, got)
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	called := false
	unsub := Subscribe(func(context.Context, ping) { called = true })
	Publish(context.Background(), ping{})
	unsub()
	require.False(t, called)
}
