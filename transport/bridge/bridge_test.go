package bridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipePair(t *testing.T) (*Connection, *Connection) {
	t.Helper()
	a, b := net.Pipe()
	return NewConnection("a", a), NewConnection("b", b)
}

func TestSendSubscribeRoundTrip(t *testing.T) {
	a, b := pipePair(t)
	defer a.Close()
	defer b.Close()

	sub, err := b.Subscribe(7)
	require.NoError(t, err)

	done := a.SendMessage(7, []byte("payload"))
	require.NoError(t, <-done)

	select {
	case payload := <-sub:
		assert.Equal(t, []byte("payload"), payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestSubscribeAfterArrivalReturnsBuffered(t *testing.T) {
	a, b := pipePair(t)
	defer a.Close()
	defer b.Close()

	done := a.SendMessage(3, []byte("early"))
	require.NoError(t, <-done)

	time.Sleep(20 * time.Millisecond)

	sub, err := b.Subscribe(3)
	require.NoError(t, err)
	select {
	case payload := <-sub:
		assert.Equal(t, []byte("early"), payload)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestDuplicateSubscriptionIsProgrammerError(t *testing.T) {
	a, b := pipePair(t)
	defer a.Close()
	defer b.Close()

	_, err := b.Subscribe(1)
	require.NoError(t, err)
	_, err = b.Subscribe(1)
	assert.ErrorIs(t, err, ErrDuplicateSubscription)
}

func TestExchange(t *testing.T) {
	a, b := pipePair(t)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		sub, err := b.Subscribe(10)
		if err != nil {
			return
		}
		payload := <-sub
		_ = <-b.SendMessage(11, payload)
	}()

	reply, err := a.Exchange(ctx, 10, 11, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), reply)
}

func TestRegistrationRoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	var gotID uint64
	go func() {
		c, id, err := acceptOne(ctx, ln)
		gotID = id
		serverErr <- err
		if c != nil {
			c.Close()
		}
	}()

	client, err := Dial(ctx, "client", ln.Addr().String(), 42)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, <-serverErr)
	assert.Equal(t, uint64(42), gotID)
}

func acceptOne(ctx context.Context, ln net.Listener) (*Connection, uint64, error) {
	return Accept(ctx, "server", ln)
}

// TestDialRetriesUntilListenerIsUp exercises §5's startup race: a client
// may begin dialing before the server's listener exists, and Dial must
// retry with backoff rather than fail the first attempt.
func TestDialRetriesUntilListenerIsUp(t *testing.T) {
	addr := "127.0.0.1:18423"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	clientErr := make(chan error, 1)
	clientConn := make(chan *Connection, 1)
	go func() {
		c, err := Dial(ctx, "client", addr, 7)
		clientConn <- c
		clientErr <- err
	}()

	// Give the dialer time to fail at least once before the listener
	// exists.
	time.Sleep(30 * time.Millisecond)

	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer ln.Close()

	serverErr := make(chan error, 1)
	go func() {
		c, _, err := Accept(ctx, "server", ln)
		serverErr <- err
		if c != nil {
			c.Close()
		}
	}()

	require.NoError(t, <-clientErr)
	c := <-clientConn
	require.NotNil(t, c)
	defer c.Close()
	require.NoError(t, <-serverErr)
}
