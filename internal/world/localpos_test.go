package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPos_Bounds(t *testing.T) {
	_, ok := NewLocalPos(15, 15, 15)
	assert.True(t, ok, "(15,15,15) должна быть допустимой позицией")

	_, ok = NewLocalPos(16, 0, 0)
	assert.False(t, ok, "(16,0,0) выходит за пределы чанка")
	_, ok = NewLocalPos(0, 16, 0)
	assert.False(t, ok)
	_, ok = NewLocalPos(0, 0, 255)
	assert.False(t, ok)

	assert.Panics(t, func() { MustLocalPos(0, 16, 0) })
}

func TestLocalPos_BitsRoundTrip(t *testing.T) {
	for bits := uint16(0); bits <= localBitsMask; bits++ {
		p, ok := LocalPosFromBits(bits)
		require.True(t, ok)
		assert.Equal(t, bits, p.Bits())
	}

	p := MustLocalPos(1, 2, 3)
	assert.Equal(t, uint16(0x0123), p.Bits(), "раскладка 0000xxxxyyyyzzzz")

	_, ok := LocalPosFromBits(0x1000)
	assert.False(t, ok, "биты за пределами 12 младших должны отвергаться")
	_, ok = LocalPosFromBits(0xF123)
	assert.False(t, ok)
}

func TestLocalPos_Increment(t *testing.T) {
	p := MustLocalPos(14, 0, 7)

	assert.Equal(t, MustLocalPos(15, 0, 7), p.IncX())
	assert.Equal(t, MustLocalPos(14, 1, 7), p.IncY())
	assert.Equal(t, MustLocalPos(14, 0, 8), p.IncZ())
	assert.Equal(t, MustLocalPos(15, 1, 8), p.Inc(AllAxes))

	edge := MustLocalPos(15, 15, 15)
	assert.Panics(t, func() { edge.IncX() })
	assert.Panics(t, func() { edge.IncY() })
	assert.Panics(t, func() { edge.IncZ() })
}

func TestLocalPos_Mask(t *testing.T) {
	p := MustLocalPos(15, 9, 4)

	assert.Equal(t, MustLocalPos(0, 9, 4), p.Mask(AxisY|AxisZ), "X должен обнулиться")
	assert.Equal(t, MustLocalPos(15, 0, 0), p.Mask(AxisX))
	assert.Equal(t, p, p.Mask(AllAxes))
	assert.Equal(t, LocalPos{}, p.Mask(NoAxes))

	assert.Equal(t, AxisX, p.AtMax())
	assert.Equal(t, NoAxes, p.AtZero())
	assert.Equal(t, AxisY|AxisZ, MustLocalPos(3, 0, 0).AtZero())
}

func TestInnerPositions(t *testing.T) {
	count := 0
	seen := make(map[uint16]struct{})
	for p := range InnerPositions() {
		count++
		seen[p.Bits()] = struct{}{}
		assert.NotPanics(t, func() {
			p.IncX()
			p.IncY()
			p.IncZ()
		})
	}
	assert.Equal(t, 3375, count, "15³ внутренних позиций")
	assert.Len(t, seen, 3375, "позиции не должны повторяться")

	// Последовательность перезапускаема
	again := 0
	for range InnerPositions() {
		again++
	}
	assert.Equal(t, count, again)

	// Ранний выход
	first := 0
	for range InnerPositions() {
		first++
		if first == 10 {
			break
		}
	}
	assert.Equal(t, 10, first)
}

func TestZonePositions_CoverChunk(t *testing.T) {
	expected := map[Axes]int{
		NoAxes:        3375,
		AxisX:         225,
		AxisY:         225,
		AxisZ:         225,
		AxisX | AxisY: 15,
		AxisX | AxisZ: 15,
		AxisY | AxisZ: 15,
		AllAxes:       1,
	}

	seen := make(map[uint16]struct{})
	for _, fixed := range Zones {
		n := 0
		for p := range ZonePositions(fixed) {
			n++
			assert.Equal(t, fixed, p.AtMax(), "позиция %v должна принадлежать зоне %v", p, fixed)
			seen[p.Bits()] = struct{}{}
		}
		assert.Equal(t, expected[fixed], n, "размер зоны %v", fixed)
	}
	assert.Len(t, seen, ChunkVolume, "зоны покрывают весь чанк без пересечений")
}
