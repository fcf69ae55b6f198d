package main

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxel-pathing/internal/eventbus"
	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	assert.Nil(t, parseStringList(""))
	assert.Equal(t, []string{"ChunkRefresh", "PathComputed"}, parseStringList(" ChunkRefresh, ,PathComputed "))
}

func TestFormatEvent(t *testing.T) {
	ev, err := eventbus.NewEnvelope(eventbus.EventChunkRefresh, "pathd", eventbus.ChunkRefresh{Chunk: world.ChunkCoord{X: 2}})
	require.NoError(t, err)
	assert.Contains(t, formatEvent(ev), "Chunk: chunk(2,0,0)")

	ev, err = eventbus.NewEnvelope(eventbus.EventBlockChanged, "api", map[string]int{"x": 1})
	require.NoError(t, err)
	assert.Contains(t, formatEvent(ev), `Payload: {"x":1}`)
}

func TestTailEventsStopsAtLimit(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	defer bus.Close()

	go func() {
		// Ждём подписку, затем публикуем
		time.Sleep(50 * time.Millisecond)
		for i := 0; i < 3; i++ {
			ev, _ := eventbus.NewEnvelope(eventbus.EventChunkRefresh, "pathd", eventbus.ChunkRefresh{})
			_ = bus.Publish(context.Background(), ev)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	count, err := tailEvents(ctx, bus, eventbus.Filter{Types: []string{eventbus.EventChunkRefresh}}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
