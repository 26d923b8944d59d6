// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bridge implements the client<->server framed multiplexed
// connection of §4.10: one reader and one writer goroutine per socket,
// send/subscribe/exchange over a fixed little-endian frame format.
package bridge

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/getamis/fedmpc/errkind"
	"github.com/getamis/fedmpc/wire"
	"github.com/getamis/sirius/log"
)

// ErrDuplicateSubscription is returned when Subscribe is called twice for
// the same message id before the first subscription resolves: a
// programmer error, fatal per §7.
var ErrDuplicateSubscription = errors.New("bridge: duplicate subscription")

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("bridge: connection closed")

// Connection multiplexes tagged messages over a single net.Conn. The
// two maps below are kept strictly disjoint: a message id lives in at
// most one of pendingMessage (arrived, unclaimed) or pendingSubscribe
// (claimed, not yet arrived).
type Connection struct {
	logger log.Logger
	conn   net.Conn

	mu               sync.Mutex
	pendingMessage   map[uint64][]byte
	pendingSubscribe map[uint64]chan []byte
	closed           bool

	writeCh chan writeTask
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	bytesSent uint64
	bytesRecv uint64
}

type writeTask struct {
	frame wire.Frame
	done  chan error
}

// NewConnection wraps conn and starts its reader/writer goroutines.
func NewConnection(id string, conn net.Conn) *Connection {
	c := &Connection{
		logger:           log.New("self", id),
		conn:             conn,
		pendingMessage:   make(map[uint64][]byte),
		pendingSubscribe: make(map[uint64]chan []byte),
		writeCh:          make(chan writeTask, 64),
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(2)
	go c.readLoop(ctx)
	go c.writeLoop(ctx)
	return c
}

// Close tears down both background workers and the underlying socket.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	err := c.conn.Close()
	c.wg.Wait()
	return err
}

func (c *Connection) readLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		frame, err := wire.ReadFrame(c.conn)
		if err != nil {
			c.logger.Debug("bridge read loop exiting", "err", err)
			c.failAllPending()
			return
		}
		atomic.AddUint64(&c.bytesRecv, uint64(len(frame.Payload)))
		c.deliver(frame.MessageID, frame.Payload)
	}
}

// BytesSent reports the total payload bytes written to the socket.
func (c *Connection) BytesSent() uint64 { return atomic.LoadUint64(&c.bytesSent) }

// BytesRecv reports the total payload bytes read from the socket.
func (c *Connection) BytesRecv() uint64 { return atomic.LoadUint64(&c.bytesRecv) }

func (c *Connection) deliver(id uint64, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.pendingSubscribe[id]; ok {
		delete(c.pendingSubscribe, id)
		ch <- payload
		close(ch)
		return
	}
	c.pendingMessage[id] = payload
}

func (c *Connection) failAllPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pendingSubscribe {
		close(ch)
		delete(c.pendingSubscribe, id)
	}
}

func (c *Connection) writeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case task, ok := <-c.writeCh:
			if !ok {
				return
			}
			_, err := task.frame.WriteTo(c.conn)
			if err == nil {
				atomic.AddUint64(&c.bytesSent, uint64(len(task.frame.Payload)))
			}
			task.done <- err
			close(task.done)
		case <-ctx.Done():
			return
		}
	}
}

// SendMessage enqueues id/payload for writing and returns a one-shot
// channel resolved once the bytes have been handed to the socket layer.
// There is no ordering guarantee between different ids.
func (c *Connection) SendMessage(id uint64, payload []byte) <-chan error {
	done := make(chan error, 1)
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		done <- errkind.WrapIO(ErrClosed)
		close(done)
		return done
	}
	c.writeCh <- writeTask{frame: wire.Frame{MessageID: id, Payload: payload}, done: done}
	return done
}

// Subscribe returns the already-buffered payload for id if one arrived
// first, or a channel that resolves when the reader delivers it. At most
// one outstanding subscription per id is allowed; a duplicate is a
// programmer error.
func (c *Connection) Subscribe(id uint64) (<-chan []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if payload, ok := c.pendingMessage[id]; ok {
		delete(c.pendingMessage, id)
		ch := make(chan []byte, 1)
		ch <- payload
		close(ch)
		return ch, nil
	}
	if _, ok := c.pendingSubscribe[id]; ok {
		return nil, errkind.WrapProgrammer(ErrDuplicateSubscription)
	}
	ch := make(chan []byte, 1)
	c.pendingSubscribe[id] = ch
	return ch, nil
}

// Exchange sends sendID/payload and subscribes recvID in parallel,
// returning the payload received on recvID.
func (c *Connection) Exchange(ctx context.Context, sendID, recvID uint64, payload []byte) ([]byte, error) {
	sub, err := c.Subscribe(recvID)
	if err != nil {
		return nil, err
	}
	sendDone := c.SendMessage(sendID, payload)

	select {
	case err := <-sendDone:
		if err != nil {
			return nil, errkind.WrapIO(err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case reply, ok := <-sub:
		if !ok {
			return nil, errkind.WrapIO(ErrClosed)
		}
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
