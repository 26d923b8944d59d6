package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint64RoundTrip(t *testing.T) {
	buf := PutUint64(nil, 0xdeadbeefabcdabcd)
	got, rest, err := GetUint64(buf)
	assert.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, uint64(0xdeadbeefabcdabcd), got)

	_, _, err = GetUint64(buf[:4])
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestBytesRoundTrip(t *testing.T) {
	payload := []byte("Hello World!!")
	buf := PutBytes(nil, payload)
	got, rest, err := GetBytes(buf)
	assert.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, payload, got)
}

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{MessageID: 12, Payload: []byte("Hello World!!")}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	assert.NoError(t, err)

	got, err := ReadFrame(&buf)
	assert.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestFrameRejectsOversizedLength(t *testing.T) {
	buf := PutUint64(nil, 0)
	buf = PutUint64(buf, MaxFrameLen+1)
	_, err := ReadFrame(bytes.NewReader(buf))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTupleConcatenation(t *testing.T) {
	got := Tuple(PutUint64(nil, 1), PutUint64(nil, 2))
	want := append(PutUint64(nil, 1), PutUint64(nil, 2)...)
	assert.Equal(t, want, got)
}
