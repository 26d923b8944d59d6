package aeskit

import (
	"testing"

	"github.com/getamis/fedmpc/block"
	"github.com/stretchr/testify/assert"
)

func TestKeyScheduleAllZero(t *testing.T) {
	ks, err := NewKeySchedule(block.Zero)
	assert.NoError(t, err)
	ct := ks.Encrypt(block.Zero)
	// The standard AES-128 test vector for an all-zero key and plaintext.
	want, err := block.FromBytes([]byte{
		0x66, 0xe9, 0x4b, 0xd4, 0xef, 0x8a, 0x2c, 0x3b,
		0x88, 0x4c, 0xfa, 0x59, 0xca, 0x34, 0x2b, 0x2e,
	})
	assert.NoError(t, err)
	assert.Equal(t, want, ct)
}

func TestBatchedKeyScheduleMatchesSingle(t *testing.T) {
	seeds := []block.Block{block.Zero, block.New(1, 0), block.New(2, 0)}
	batch, err := NewBatchedKeySchedule(seeds)
	assert.NoError(t, err)

	pt := []block.Block{
		block.New(10, 0), block.New(11, 0),
		block.New(20, 0), block.New(21, 0),
		block.New(30, 0), block.New(31, 0),
	}
	got, err := batch.ParallelECB(pt)
	assert.NoError(t, err)

	for i, seed := range seeds {
		ks, err := NewKeySchedule(seed)
		assert.NoError(t, err)
		assert.Equal(t, ks.Encrypt(pt[i*2]), got[i*2])
		assert.Equal(t, ks.Encrypt(pt[i*2+1]), got[i*2+1])
	}

	_, err = batch.ParallelECB(pt[:5])
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestMiTCCRRenewsKeysPerCall(t *testing.T) {
	m, err := NewMiTCCR(block.New(42, 7), 2)
	assert.NoError(t, err)

	in := []block.Block{block.New(1, 0), block.New(2, 0)}
	out1, err := m.Hash(in, 1)
	assert.NoError(t, err)
	out2, err := m.Hash(in, 1)
	assert.NoError(t, err)

	// Same input, different tweak (the renewed counter) must give different output.
	assert.NotEqual(t, out1, out2)

	_, err = m.Hash(in[:1], 1)
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestSeededBlockRNGDeterministic(t *testing.T) {
	seed := block.New(9, 9)
	r1, err := NewSeededBlockRNG(&seed)
	assert.NoError(t, err)
	whole := r1.RandomBlocks(20)

	r2, err := NewSeededBlockRNG(&seed)
	assert.NoError(t, err)
	part1 := r2.RandomBlocks(7)
	part2 := r2.RandomBlocks(13)

	assert.Equal(t, whole, append(part1, part2...))
}
