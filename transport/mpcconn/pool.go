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

// Package mpcconn implements the server<->server MPC connection of
// §4.11: a fixed-size pool of N TCP sockets dispatching logical messages
// first-come-first-served, with no ordering guarantee across sockets.
// Correctness relies entirely on unique message ids and the
// subscribe/publish rendezvous, exactly as the client bridge's read side.
package mpcconn

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

// ErrDuplicateSubscription is returned for a second outstanding
// subscription on the same message id — a programmer error.
var ErrDuplicateSubscription = errors.New("mpcconn: duplicate subscription")

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("mpcconn: pool closed")

type writeTask struct {
	frame wire.Frame
	done  chan error
}

// Pool is a fixed-size socket pool shared by many concurrent logical
// messages (one per client per phase). The read side is a single map
// pair shared across all sockets, keyed by message id, identical in
// shape to the client bridge. The write side dispatches
// first-come-first-served: a send either hands its task directly to an
// idle worker or queues it; a worker either picks up a queued task or
// parks itself as idle.
type Pool struct {
	logger log.Logger

	conns []net.Conn

	mu               sync.Mutex
	pendingMessage   map[uint64][]byte
	pendingSubscribe map[uint64]chan []byte
	idleWorkers      []chan writeTask
	pendingTasks     []writeTask
	closed           bool

	cancel context.CancelFunc
	wg     sync.WaitGroup

	bytesSent uint64
	bytesRecv uint64
}

// New builds a pool over already-established sockets and starts one
// reader and one writer goroutine per socket.
func New(id string, conns []net.Conn) *Pool {
	p := &Pool{
		logger:           log.New("self", id),
		conns:            conns,
		pendingMessage:   make(map[uint64][]byte),
		pendingSubscribe: make(map[uint64]chan []byte),
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for _, conn := range conns {
		conn := conn
		p.wg.Add(2)
		go p.readLoop(conn)
		go p.writeWorker(ctx, conn)
	}
	return p
}

// NumSockets reports the pool's fixed socket count.
func (p *Pool) NumSockets() int { return len(p.conns) }

// PeerAddr returns the remote address of the first socket, used once at
// startup to learn the peer's address for logging.
func (p *Pool) PeerAddr() net.Addr {
	if len(p.conns) == 0 {
		return nil
	}
	return p.conns[0].RemoteAddr()
}

// Close cancels all writers and closes every socket, which in turn
// unblocks every reader's blocking Read call.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	var firstErr error
	for _, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.failAllPending()
	p.wg.Wait()
	return firstErr
}

func (p *Pool) readLoop(conn net.Conn) {
	defer p.wg.Done()
	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			p.logger.Debug("mpcconn read loop exiting", "err", err)
			p.failAllPending()
			return
		}
		atomic.AddUint64(&p.bytesRecv, uint64(len(frame.Payload)))
		p.deliver(frame.MessageID, frame.Payload)
	}
}

// BytesSent reports the total payload bytes written across every socket
// in the pool.
func (p *Pool) BytesSent() uint64 { return atomic.LoadUint64(&p.bytesSent) }

// BytesRecv reports the total payload bytes read across every socket in
// the pool.
func (p *Pool) BytesRecv() uint64 { return atomic.LoadUint64(&p.bytesRecv) }

func (p *Pool) deliver(id uint64, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.pendingSubscribe[id]; ok {
		delete(p.pendingSubscribe, id)
		ch <- payload
		close(ch)
		return
	}
	p.pendingMessage[id] = payload
}

// failAllPending wakes every goroutine blocked in Subscribe with a
// failure (the channel closes with no value) instead of leaving it
// parked forever, per §5: a socket error or pool close is fatal to any
// outstanding subscription on this peer link.
func (p *Pool) failAllPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.pendingSubscribe {
		close(ch)
		delete(p.pendingSubscribe, id)
	}
}

// writeWorker implements the scheduler of §4.11: pick up the head of the
// pending-task queue, or park as an idle socket. There is no write
// buffering: runTask writes each task's frame straight to the socket, so
// every task is flushed on its own and consecutive tasks are not batched
// into a single write.
func (p *Pool) writeWorker(ctx context.Context, conn net.Conn) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(p.pendingTasks) > 0 {
			task := p.pendingTasks[0]
			p.pendingTasks = p.pendingTasks[1:]
			p.mu.Unlock()
			p.runTask(conn, task)
			continue
		}
		ch := make(chan writeTask, 1)
		p.idleWorkers = append(p.idleWorkers, ch)
		p.mu.Unlock()

		select {
		case task := <-ch:
			p.runTask(conn, task)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) runTask(conn net.Conn, task writeTask) {
	_, err := task.frame.WriteTo(conn)
	if err == nil {
		atomic.AddUint64(&p.bytesSent, uint64(len(task.frame.Payload)))
	}
	task.done <- err
	close(task.done)
}

// Send dispatches id/payload to the first idle socket, or queues it if
// every socket is busy. Returns a one-shot resolved once written.
func (p *Pool) Send(id uint64, payload []byte) <-chan error {
	done := make(chan error, 1)
	task := writeTask{frame: wire.Frame{MessageID: id, Payload: payload}, done: done}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		done <- errkind.WrapIO(ErrClosed)
		close(done)
		return done
	}
	if len(p.idleWorkers) > 0 {
		ch := p.idleWorkers[0]
		p.idleWorkers = p.idleWorkers[1:]
		p.mu.Unlock()
		ch <- task
		return done
	}
	p.pendingTasks = append(p.pendingTasks, task)
	p.mu.Unlock()
	return done
}

// Subscribe returns the already-buffered payload for id, or a channel
// resolved when a reader delivers it. At most one outstanding
// subscription per id.
func (p *Pool) Subscribe(id uint64) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if payload, ok := p.pendingMessage[id]; ok {
		delete(p.pendingMessage, id)
		ch := make(chan []byte, 1)
		ch <- payload
		close(ch)
		return ch, nil
	}
	if _, ok := p.pendingSubscribe[id]; ok {
		return nil, errkind.WrapProgrammer(ErrDuplicateSubscription)
	}
	ch := make(chan []byte, 1)
	p.pendingSubscribe[id] = ch
	return ch, nil
}

// Exchange sends sendID/payload and subscribes recvID concurrently,
// returning the payload received on recvID.
func (p *Pool) Exchange(ctx context.Context, sendID, recvID uint64, payload []byte) ([]byte, error) {
	sub, err := p.Subscribe(recvID)
	if err != nil {
		return nil, err
	}
	sendDone := p.Send(sendID, payload)

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
