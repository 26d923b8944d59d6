package ring

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappingArithmetic(t *testing.T) {
	a := New[uint8](250)
	b := New[uint8](10)
	assert.Equal(t, New[uint8](4), a.Add(b))
	assert.Equal(t, New[uint8](240), a.Sub(b))
}

func TestModuloPow2(t *testing.T) {
	x := New[uint32](0b11010110)
	assert.Equal(t, New[uint32](0b0110), x.ModuloPow2(4))
	assert.Equal(t, x, x.ModuloPow2(32))
}

func TestArithShares(t *testing.T) {
	x := New[uint64](123456789)
	rng := bytes.NewReader(make([]byte, 64))
	s0, s1, err := ArithShares(x, rng)
	assert.NoError(t, err)
	assert.Equal(t, x, s0.Add(s1))
}

func TestAsWidens(t *testing.T) {
	x := New[uint8](0xAB)
	y := As[uint32](x)
	assert.Equal(t, uint64(0xAB), y.Uint64())
	back := As[uint8](y)
	assert.Equal(t, x, back)
}

func TestBoundedEncode(t *testing.T) {
	y, s, err := BoundedEncode(5, 8)
	assert.NoError(t, err)
	assert.Equal(t, uint64(5), y)
	assert.Equal(t, uint64(1), s)

	_, _, err = BoundedEncode(9, 8)
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestU128WrapsAndShares(t *testing.T) {
	x := NewU128(^uint64(0), ^uint64(0))
	one := NewU128(1, 0)
	got := x.Add(one)
	assert.Equal(t, NewU128(0, 0), got)

	rng := bytes.NewReader(make([]byte, 32))
	s0, s1, err := ArithSharesU128(NewU128(42, 7), rng)
	assert.NoError(t, err)
	assert.Equal(t, NewU128(42, 7), s0.Add(s1))
}
