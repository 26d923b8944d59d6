package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsorbIsOrderSensitive(t *testing.T) {
	a := New(DirectionB2AAB)
	a.Absorb([]byte("hello"))
	a.Absorb([]byte("world"))

	b := New(DirectionB2AAB)
	b.Absorb([]byte("world"))
	b.Absorb([]byte("hello"))

	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestAbsorbLengthPrefixPreventsAmbiguity(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must hash differently since each absorbed
	// piece is length-prefixed rather than simply concatenated.
	a := New(DirectionA2SAB)
	a.Absorb([]byte("ab"))
	a.Absorb([]byte("c"))

	b := New(DirectionA2SAB)
	b.Absorb([]byte("a"))
	b.Absorb([]byte("bc"))

	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestDeterministicDigest(t *testing.T) {
	mk := func() [32]byte {
		c := New(DirectionOTBA)
		c.Absorb([]byte{1, 2, 3})
		c.AbsorbBytes([]byte{4, 5, 6}, []byte{7})
		return c.Digest()
	}
	assert.Equal(t, mk(), mk())
}

func TestDeriveSeedsLittleEndian(t *testing.T) {
	digest := make([]byte, 32)
	digest[0] = 1 // chi seed = 1
	digest[8] = 2 // t seed = 2
	chi, tSeed, err := DeriveSeeds(digest)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), chi)
	assert.Equal(t, uint64(2), tSeed)
}

func TestDeriveSeedsRejectsShortDigest(t *testing.T) {
	_, _, err := DeriveSeeds(make([]byte, 8))
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestSqCorrBADirectionPreservesUpstreamName(t *testing.T) {
	assert.Equal(t, "sqcorr_ba", DirectionSqCorrBA)
}
