package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus(t *testing.T) {
	var got []string
	first := EventSubscriberFunc(func(e GameEvent) { got = append(got, "first:"+e.EventType().String()) })
	second := &recorder{}

	bus := NewEventBus(first, nil)
	bus.Subscribe(second)
	bus.Publish(PlayerTimedOutEvent{PlayerID: "p1"})

	bus.Unsubscribe(second)
	bus.OnEvent(PlayerLeftEvent{PlayerID: "p1"})

	assert.Equal(t, []string{"first:player_timed_out", "first:player_left"}, got)
	assert.Len(t, second.all(), 1)
}
