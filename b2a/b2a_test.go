package b2a

import (
	"math/rand"
	"testing"

	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/ring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitsOf(v uint64, w int) []uint8 {
	out := make([]uint8, w)
	for i := 0; i < w; i++ {
		out[i] = uint8(v>>uint(i)) & 1
	}
	return out
}

func runConversion[W ring.Unsigned](t *testing.T, r *rand.Rand, x ring.Ring[W]) ring.Ring[W] {
	w := ring.Width[W]()
	x0, err := ring.Random[W](r)
	require.NoError(t, err)
	x1 := x.Xor(x0)

	x0Bits := bitsOf(x0.Uint64(), w)
	x1Bits := bitsOf(x1.Uint64(), w)

	delta := block.New(r.Uint64(), r.Uint64())
	sender, receiver, _, err := cot.Sample(x1Bits, delta, 0)
	require.NoError(t, err)

	qs, err := sender.QsSeed.Expand(w)
	require.NoError(t, err)

	seed := block.New(r.Uint64(), r.Uint64())
	z0, msg, err := SenderPhase[W](x0Bits, qs, sender.Delta, seed)
	require.NoError(t, err)

	z1, err := ReceiverPhase[W](x1Bits, receiver.Ts, seed, msg)
	require.NoError(t, err)

	return z0.Add(z1)
}

func TestB2ARoundTrip8(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		x, err := ring.Random[uint8](r)
		require.NoError(t, err)
		got := runConversion[uint8](t, r, x)
		assert.Equal(t, x.Uint64(), got.Uint64())
	}
}

func TestB2ARoundTrip32(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		x, err := ring.Random[uint32](r)
		require.NoError(t, err)
		got := runConversion[uint32](t, r, x)
		assert.Equal(t, x.Uint64(), got.Uint64())
	}
}

func TestB2ARoundTrip64(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		x, err := ring.Random[uint64](r)
		require.NoError(t, err)
		got := runConversion[uint64](t, r, x)
		assert.Equal(t, x.Uint64(), got.Uint64())
	}
}

func TestB2ABatch(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	const n = 16
	w := ring.Width[uint32]()

	xs := make([]ring.Ring[uint32], n)
	x0s := make([]ring.Ring[uint32], n)
	x1s := make([]ring.Ring[uint32], n)
	x0Bits := make([][]uint8, n)
	x1Bits := make([][]uint8, n)
	allX1Bits := make([]uint8, 0, n*w)

	for i := 0; i < n; i++ {
		x, err := ring.Random[uint32](r)
		require.NoError(t, err)
		x0, err := ring.Random[uint32](r)
		require.NoError(t, err)
		x1 := x.Xor(x0)

		xs[i] = x
		x0s[i] = x0
		x1s[i] = x1
		x0Bits[i] = bitsOf(x0.Uint64(), w)
		x1Bits[i] = bitsOf(x1.Uint64(), w)
		allX1Bits = append(allX1Bits, x1Bits[i]...)
	}

	delta := block.New(r.Uint64(), r.Uint64())
	sender, receiver, _, err := cot.Sample(allX1Bits, delta, 0)
	require.NoError(t, err)

	qs, err := sender.QsSeed.Expand(n * w)
	require.NoError(t, err)

	seed := block.New(r.Uint64(), r.Uint64())
	z0s, msgs, err := BatchSenderPhase[uint32](x0Bits, qs, sender.Delta, seed)
	require.NoError(t, err)

	z1s, err := BatchReceiverPhase[uint32](x1Bits, receiver.Ts, seed, msgs)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		got := z0s[i].Add(z1s[i])
		assert.Equal(t, xs[i].Uint64(), got.Uint64())
	}
}

func TestB2AWrongInput(t *testing.T) {
	_, _, err := SenderPhase[uint8]([]uint8{1, 2}, make([]block.Block, 8), block.Zero, block.Zero)
	assert.ErrorIs(t, err, ErrWrongInput)

	_, err = ReceiverPhase[uint8]([]uint8{1, 2}, make([]block.Block, 8), block.Zero, []uint64{1})
	assert.ErrorIs(t, err, ErrWrongInput)
}
