package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/eventbus"
)

func TestBus_WatchAndPublish(t *testing.T) {
	b := eventbus.New(nil)
	w := b.Watch("lab")
	defer b.Unwatch("lab", w)

	b.Publish("lab", &eventbus.Event{Event: eventbus.KindMessage, Payload: "hello"})

	select {
	case got := <-w.C():
		assert.Equal(t, eventbus.KindMessage, got.Event)
		assert.Equal(t, "hello", got.Payload)
	default:
		require.Fail(t, "expected event on channel")
	}
}

func TestBus_Unwatch(t *testing.T) {
	b := eventbus.New(nil)
	w := b.Watch("lab")
	b.Unwatch("lab", w)

	b.Publish("lab", &eventbus.Event{Event: eventbus.KindMessage})

	select {
	case <-w.C():
		require.Fail(t, "did not expect event after unwatch")
	default:
	}
}

func TestBus_PublishNoWatchersDoesNotPanic(t *testing.T) {
	b := eventbus.New(nil)
	b.Publish("nonexistent", &eventbus.Event{Event: eventbus.KindMessage})
}

func TestBus_BufferOverflowDropsSilently(t *testing.T) {
	b := eventbus.New(nil)
	w := b.Watch("lab")
	defer b.Unwatch("lab", w)

	for i := 0; i < 64; i++ {
		b.Publish("lab", &eventbus.Event{Event: eventbus.KindMessage})
	}
	// 65th publish should drop, not block or panic.
	b.Publish("lab", &eventbus.Event{Event: eventbus.KindMessage})
}

func TestBus_PublishMany(t *testing.T) {
	b := eventbus.New(nil)
	w1 := b.Watch("lab")
	w2 := b.Watch("other")
	defer b.Unwatch("lab", w1)
	defer b.Unwatch("other", w2)

	b.PublishMany([]eventbus.Broadcast{
		{Key: "lab", Event: &eventbus.Event{Event: eventbus.KindMessage, Payload: "a"}},
		{Key: "other", Event: &eventbus.Event{Event: eventbus.KindMessage, Payload: "b"}},
	})

	got1 := <-w1.C()
	assert.Equal(t, "a", got1.Payload)
	got2 := <-w2.C()
	assert.Equal(t, "b", got2.Payload)
}

func TestBus_OnActiveCallback(t *testing.T) {
	var transitions []bool
	b := eventbus.New(func(key string, active bool) {
		transitions = append(transitions, active)
	})

	w1 := b.Watch("lab")
	w2 := b.Watch("lab")
	b.Unwatch("lab", w1)
	b.Unwatch("lab", w2)

	require.Equal(t, []bool{true, false}, transitions)
}

func TestBus_ActiveKeys(t *testing.T) {
	b := eventbus.New(nil)
	assert.Equal(t, 0, b.ActiveKeys())
	w := b.Watch("lab")
	assert.Equal(t, 1, b.ActiveKeys())
	b.Unwatch("lab", w)
	assert.Equal(t, 0, b.ActiveKeys())
}
