package clientspool

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/getamis/fedmpc/transport/bridge"
	"github.com/getamis/fedmpc/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeHello mirrors the S4 payload shape: (client_index, "Hello
// World!!", a fixed 128-bit tag), framed as a length-prefixed tuple.
func encodeHello(clientIndex uint64, tag [16]byte) []byte {
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], clientIndex)
	var buf []byte
	buf = wire.PutBytes(buf, idxBuf[:])
	buf = wire.PutBytes(buf, []byte("Hello World!!"))
	buf = wire.PutBytes(buf, tag[:])
	return buf
}

func decodeHelloIndex(t *testing.T, payload []byte) uint64 {
	t.Helper()
	idxBytes, rest, err := wire.GetBytes(payload)
	require.NoError(t, err)
	require.Len(t, idxBytes, 8)
	_ = rest
	return binary.LittleEndian.Uint64(idxBytes)
}

// TestGatherEightClientsSortedByID is the S4 scenario: a localhost pair
// and 8 concurrent clients publishing id=12, gathered sorted by client id.
func TestGatherEightClientsSortedByID(t *testing.T) {
	const msgID = 12
	const numClients = 8
	var tag [16]byte
	binary.LittleEndian.PutUint64(tag[0:8], 0xabcdabcdaabbccdd)
	binary.LittleEndian.PutUint64(tag[8:16], 0xdeadbeefeeff1234)

	ln, err := bridge.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	pool := New("server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted := make(chan error, numClients)
	go func() {
		for i := 0; i < numClients; i++ {
			conn, clientID, err := bridge.Accept(ctx, "server", ln)
			if err != nil {
				accepted <- err
				return
			}
			pool.Add(clientID, conn)
			accepted <- nil
		}
	}()

	clients := make([]*bridge.Connection, numClients)
	for i := 0; i < numClients; i++ {
		c, err := bridge.Dial(ctx, "client", ln.Addr().String(), uint64(i))
		require.NoError(t, err)
		clients[i] = c
	}
	for i := 0; i < numClients; i++ {
		require.NoError(t, <-accepted)
	}

	for i, c := range clients {
		done := c.SendMessage(msgID, encodeHello(uint64(i), tag))
		require.NoError(t, <-done)
	}

	results, err := pool.Gather(ctx, msgID)
	require.NoError(t, err)
	require.Len(t, results, numClients)

	for i, r := range results {
		assert.Equal(t, uint64(i), r.ClientID)
		assert.Equal(t, uint64(i), decodeHelloIndex(t, r.Payload))
	}

	for _, c := range clients {
		c.Close()
	}
}

func TestSplitByParityAndMerge(t *testing.T) {
	p := New("server")
	ln, err := bridge.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const n = 5
	accepted := make(chan error, n)
	go func() {
		for i := 0; i < n; i++ {
			conn, id, err := bridge.Accept(ctx, "server", ln)
			if err != nil {
				accepted <- err
				return
			}
			p.Add(id, conn)
			accepted <- nil
		}
	}()

	for i := 0; i < n; i++ {
		c, err := bridge.Dial(ctx, "client", ln.Addr().String(), uint64(i))
		require.NoError(t, err)
		defer c.Close()
		require.NoError(t, <-accepted)
	}

	require.Equal(t, n, p.Len())

	even, odd := p.SplitByParity()
	assert.Equal(t, 3, even.Len())
	assert.Equal(t, 2, odd.Len())

	merged := Merge("merged", even, odd)
	assert.Equal(t, n, merged.Len())
}
