package protocol

import (
	"context"
	"crypto/rand"
	"net"
	"testing"
	"time"

	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/ring"
	"github.com/getamis/fedmpc/sqcorr"
	"github.com/getamis/fedmpc/transport/mpcconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeMPCPool(t *testing.T, n int) (*mpcconn.Pool, *mpcconn.Pool) {
	t.Helper()
	aConns := make([]net.Conn, n)
	bConns := make([]net.Conn, n)
	for i := 0; i < n; i++ {
		a, b := net.Pipe()
		aConns[i] = a
		bConns[i] = b
	}
	return mpcconn.New("alice", aConns), mpcconn.New("bob", bConns)
}

func deltaBlock(t *testing.T) block.Block {
	t.Helper()
	var buf [16]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	b, err := block.FromBytes(buf[:])
	require.NoError(t, err)
	return b
}

func bitsOf(v uint64, w int) []uint8 {
	out := make([]uint8, w)
	for i := 0; i < w; i++ {
		out[i] = uint8(v>>uint(i)) & 1
	}
	return out
}

// TestOneClientFullPhase drives a single client's contribution through
// the complete §4.13 phase (seed exchange, OT verify, B2A, A2S, and the
// square-correlation sacrifice check) across two in-memory mpcconn pools
// standing in for the two servers, and checks the reconstructed
// arithmetic and square shares against the client's original input.
func TestOneClientFullPhase(t *testing.T) {
	const clientID = 7
	const x uint64 = 0xC0FFEE
	w := ring.Width[uint32]()

	xBits := bitsOf(x, w)
	seed, x1Bits, err := cot.SplitBooleanShare(xBits, rand.Reader)
	require.NoError(t, err)
	// SplitBooleanShare guarantees expand(seed) XOR xBits == x1Bits, so
	// x0Bits := expand(seed) is the matching other half: x0Bits XOR
	// x1Bits == xBits.
	x0Bits, err := seed.Expand(w)
	require.NoError(t, err)

	delta := deltaBlock(t)
	senderHalf, receiverHalf, _, err := cot.Sample(x1Bits, delta, cot.VerificationOverhead)
	require.NoError(t, err)

	aliceMain, bobMain, err := sqcorr.Generate[uint32](rand.Reader)
	require.NoError(t, err)
	aliceSac, bobSac, err := sqcorr.Generate[uint32](rand.Reader)
	require.NoError(t, err)

	alicePool, bobPool := pipeMPCPool(t, 4)
	defer alicePool.Close()
	defer bobPool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type outcome struct {
		res ClientResult[uint32]
		err error
	}
	senderCh := make(chan outcome, 1)
	receiverCh := make(chan outcome, 1)

	go func() {
		res, err := RunSenderClient[uint32](ctx, alicePool, clientID, x0Bits, senderHalf, aliceMain, aliceSac)
		senderCh <- outcome{res, err}
	}()
	go func() {
		res, err := RunReceiverClient[uint32](ctx, bobPool, clientID, x1Bits, receiverHalf, bobMain, bobSac)
		receiverCh <- outcome{res, err}
	}()

	senderOut := <-senderCh
	receiverOut := <-receiverCh
	require.NoError(t, senderOut.err)
	require.NoError(t, receiverOut.err)

	assert.True(t, senderOut.res.OTVerified)
	assert.True(t, senderOut.res.SquareVerified)
	assert.True(t, receiverOut.res.SquareVerified)

	reconstructed := senderOut.res.ArithmeticShare.Add(receiverOut.res.ArithmeticShare)
	assert.Equal(t, x, reconstructed.Uint64())

	wantSquare := (x * x) & 0xFFFFFFFF
	gotSquare := senderOut.res.SquareShare.Add(receiverOut.res.SquareShare)
	assert.Equal(t, wantSquare, gotSquare.Uint64())
}

func TestCombineChallengeIsXor(t *testing.T) {
	assert.Equal(t, uint64(0), combineChallenge(5, 5))
	assert.Equal(t, uint64(6), combineChallenge(5, 3))
}
