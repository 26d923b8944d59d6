package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesBitsRoundTrip(t *testing.T) {
	in := []byte{0xAC, 0x01}
	b := BytesToBits(in)
	assert.Len(t, b, 16)
	back, err := BitsToBytes(b)
	assert.NoError(t, err)
	assert.Equal(t, in, back)

	_, err = BitsToBytes(b[:15])
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestBitsLE(t *testing.T) {
	v := NewBitsLE(0b1011, 4)
	assert.Equal(t, uint8(1), v.Bit(0))
	assert.Equal(t, uint8(1), v.Bit(1))
	assert.Equal(t, uint8(0), v.Bit(2))
	assert.Equal(t, uint8(1), v.Bit(3))
	assert.Equal(t, []uint8{1, 1, 0, 1}, v.Slice())
}

func TestPackedBitsRoundTrip(t *testing.T) {
	raw := []uint8{1, 0, 1, 1, 0, 0, 1, 0, 1, 1}
	p := FromBits(raw)
	assert.Equal(t, raw, p.Iter())
}

func TestPackedBitsOpsAndTailMask(t *testing.T) {
	a := FromBits([]uint8{1, 1, 0, 1, 1})
	b := FromBits([]uint8{1, 0, 0, 0, 1})

	and, err := a.And(b)
	assert.NoError(t, err)
	assert.Equal(t, []uint8{1, 0, 0, 0, 1}, and.Iter())

	xor, err := a.Xor(b)
	assert.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 0, 1, 0}, xor.Iter())

	notA := a.Not()
	assert.Equal(t, []uint8{0, 0, 1, 0, 0}, notA.Iter())

	doubleNot := notA.Not()
	assert.True(t, a.Equal(doubleNot))

	// The tail bits beyond size, inside the final 32-bit lane, must be zero.
	assert.Equal(t, uint32(0), notA.lanes[0]>>5)
}

func TestPackedBitsMismatch(t *testing.T) {
	a := NewPackedBits(3)
	b := NewPackedBits(4)
	_, err := a.And(b)
	assert.ErrorIs(t, err, ErrWrongInput)
}
