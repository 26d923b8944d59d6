package block

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fromHex parses a 32-character big-endian hex string into a Block.
func fromHex(t *testing.T, s string) Block {
	t.Helper()
	raw, err := hex.DecodeString(s)
	assert.NoError(t, err)
	assert.Len(t, raw, 16)
	var lo, hi uint64
	for i := 0; i < 8; i++ {
		hi |= uint64(raw[i]) << (8 * (7 - i))
		lo |= uint64(raw[8+i]) << (8 * (7 - i))
	}
	return Block{Lo: lo, Hi: hi}
}

func TestMulVector(t *testing.T) {
	a := fromHex(t, "deadbeef12345678abcdef0123456789")
	b := fromHex(t, "1926371029371ab1928dfa02719a8c9d")

	got := a.Mul(b)

	wantLow := fromHex(t, "85c715643121b006f26d0ee099b295f5")
	wantHigh := fromHex(t, "0bd81dd6e61ad2382b4bd5277202cd7c")

	assert.Equal(t, wantLow, got.Low)
	assert.Equal(t, wantHigh, got.High)
}

func TestMulLaws(t *testing.T) {
	a := Block{Lo: 0x1122334455667788, Hi: 0x99aabbccddeeff00}
	b := Block{Lo: 0x0badf00ddeadbeef, Hi: 0x0123456789abcdef}
	c := Block{Lo: 0xfeedfacecafebabe, Hi: 0x0011223344556677}

	assert.Equal(t, a.Mul(b), b.Mul(a))
	assert.Equal(t, GF2_256{}, a.Mul(Zero))
	assert.Equal(t, GF2_256{Low: a}, a.Mul(One))

	lhs := a.Mul(b.Xor(c))
	rhs := a.Mul(b).Xor(a.Mul(c))
	assert.Equal(t, rhs, lhs)
}

func TestInnerProducts(t *testing.T) {
	blocks := []Block{{Lo: 1}, {Lo: 2}, {Lo: 3}}
	bits := []uint8{1, 0, 1}
	got, err := InnerProductWithBooleanScalar(bits, blocks)
	assert.NoError(t, err)
	assert.Equal(t, Block{Lo: 1}.Xor(Block{Lo: 3}), got)

	_, err = InnerProductWithBooleanScalar(bits, blocks[:1])
	assert.ErrorIs(t, err, ErrWrongInput)

	prod, err := InnerProduct(blocks, blocks)
	assert.NoError(t, err)
	want := blocks[0].Mul(blocks[0]).Xor(blocks[1].Mul(blocks[1])).Xor(blocks[2].Mul(blocks[2]))
	assert.Equal(t, want, prod)
}

func TestBytesRoundTrip(t *testing.T) {
	x := Block{Lo: 0x0102030405060708, Hi: 0x1112131415161718}
	bs := x.Bytes()
	back, err := FromBytes(bs[:])
	assert.NoError(t, err)
	assert.Equal(t, x, back)

	_, err = FromBytes(bs[:15])
	assert.ErrorIs(t, err, ErrWrongInput)
}

func TestAsBytesRoundTrip(t *testing.T) {
	in := []Block{{Lo: 1, Hi: 2}, {Lo: 3, Hi: 4}}
	raw := AsBytes(in)
	out, err := AsBlocks(raw)
	assert.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = AsBlocks(raw[:17])
	assert.ErrorIs(t, err, ErrWrongInput)
}
