package pathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneTableConnect(t *testing.T) {
	zt := NewZoneTable()
	a, b, c := zt.NewZone(), zt.NewZone(), zt.NewZone()
	require.Equal(t, []uint32{1, 2, 3}, []uint32{a, b, c})

	assert.NotEqual(t, zt.Equivalent(a), zt.Equivalent(b))

	zt.Connect(b, c)
	zt.Connect(c, b)
	assert.Equal(t, 2, zt.Connection(b, c))
	assert.Equal(t, 2, zt.Connection(c, b), "счётчик хранится симметрично")
	assert.Equal(t, b, zt.Equivalent(c), "канонический номер равен наименьшей зоне класса")

	zt.Connect(a, c)
	assert.Equal(t, a, zt.Equivalent(b))
	assert.Equal(t, a, zt.Equivalent(c))
	assert.Equal(t, []uint32{a, b}, zt.Neighbors(c))
}

func TestZoneTableIgnoresSelfAndZero(t *testing.T) {
	zt := NewZoneTable()
	a := zt.NewZone()

	zt.Connect(a, a)
	zt.Connect(a, 0)
	assert.Equal(t, 0, zt.Connection(a, a))
	assert.Empty(t, zt.Neighbors(a))
	assert.False(t, zt.Disconnect(a, 0))
	assert.Equal(t, uint32(0), zt.Equivalent(0))
	assert.Equal(t, uint32(0), zt.Equivalent(99))
}

func TestZoneTableSplitOnLastEdge(t *testing.T) {
	zt := NewZoneTable()
	a, b := zt.NewZone(), zt.NewZone()

	zt.Connect(a, b)
	require.Equal(t, zt.Equivalent(a), zt.Equivalent(b))
	require.False(t, zt.Stale())

	assert.True(t, zt.Disconnect(a, b))
	assert.Equal(t, 0, zt.Connection(a, b))
	assert.Equal(t, 0, zt.Connection(b, a))
	assert.Empty(t, zt.Neighbors(a), "пустая запись удаляется")
	assert.True(t, zt.Stale(), "разрыв требует перестроения классов")

	zt.Rebuild()
	assert.False(t, zt.Stale())
	assert.NotEqual(t, zt.Equivalent(a), zt.Equivalent(b))
	assert.Equal(t, a, zt.Equivalent(a))
	assert.Equal(t, b, zt.Equivalent(b))

	// Счётчик не уходит в минус
	assert.False(t, zt.Disconnect(a, b))
	assert.Equal(t, 0, zt.Connection(a, b))
}

func TestZoneTablePartialDisconnectKeepsClass(t *testing.T) {
	zt := NewZoneTable()
	a, b := zt.NewZone(), zt.NewZone()

	zt.Connect(a, b)
	zt.Connect(a, b)
	assert.True(t, zt.Disconnect(a, b))
	assert.Equal(t, 1, zt.Connection(a, b))
	assert.False(t, zt.Stale())
	assert.Equal(t, zt.Equivalent(a), zt.Equivalent(b))
}

func TestZoneTableRebuildIsIdempotent(t *testing.T) {
	zt := NewZoneTable()
	zones := make([]uint32, 10)
	for i := range zones {
		zones[i] = zt.NewZone()
	}
	// Цепочки 1-3-5-7-9 и 2-4, остальные сами по себе
	zt.Connect(zones[8], zones[6])
	zt.Connect(zones[6], zones[4])
	zt.Connect(zones[2], zones[4])
	zt.Connect(zones[0], zones[2])
	zt.Connect(zones[1], zones[3])

	snapshot := func() []uint32 {
		result := make([]uint32, len(zones))
		for i, z := range zones {
			result[i] = zt.Equivalent(z)
		}
		return result
	}

	zt.Rebuild()
	first := snapshot()
	zt.Rebuild()
	second := snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, []uint32{1, 2, 1, 2, 1, 6, 1, 8, 1, 10}, first)
}

func TestZoneTableReset(t *testing.T) {
	zt := NewZoneTable()
	a, b := zt.NewZone(), zt.NewZone()
	zt.Connect(a, b)

	zt.Reset()
	assert.Equal(t, 0, zt.Count())
	assert.Equal(t, 0, zt.Connection(a, b))
	assert.Equal(t, uint32(1), zt.NewZone())
}
