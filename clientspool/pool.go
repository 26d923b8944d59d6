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

// Package clientspool aggregates the per-client bridge connections a
// server holds open, providing broadcast/gather over the whole set and
// an even/odd split used to load-balance across the MPC connection pool.
package clientspool

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/getamis/fedmpc/errkind"
	"github.com/getamis/fedmpc/transport/bridge"
	"github.com/getamis/sirius/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownClient is returned when an operation names a client id the
// pool doesn't hold a connection for.
var ErrUnknownClient = errors.New("clientspool: unknown client")

// ClientPayload pairs a client id with the bytes gathered from it.
type ClientPayload struct {
	ClientID uint64
	Payload  []byte
}

// Pool is the set of a server's currently-registered client connections,
// indexed by client id.
type Pool struct {
	logger log.Logger

	mu    sync.RWMutex
	conns map[uint64]*bridge.Connection
}

// New creates an empty pool.
func New(id string) *Pool {
	return &Pool{
		logger: log.New("self", id),
		conns:  make(map[uint64]*bridge.Connection),
	}
}

// Add registers a client connection under its client id.
func (p *Pool) Add(clientID uint64, conn *bridge.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[clientID] = conn
}

// Remove drops a client connection from the pool (e.g. on disconnect).
func (p *Pool) Remove(clientID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns, clientID)
}

// Len reports how many clients are registered.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// ClientIDs returns the registered client ids in ascending order.
func (p *Pool) ClientIDs() []uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]uint64, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (p *Pool) get(clientID uint64) (*bridge.Connection, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.conns[clientID]
	if !ok {
		return nil, ErrUnknownClient
	}
	return conn, nil
}

// Broadcast sends the same payload under msgID to every client, waiting
// for all sends to be handed to their socket layer.
func (p *Pool) Broadcast(ctx context.Context, msgID uint64, payload []byte) error {
	ids := p.ClientIDs()
	g, _ := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		conn, err := p.get(id)
		if err != nil {
			continue
		}
		g.Go(func() error {
			select {
			case err := <-conn.SendMessage(msgID, payload):
				if err != nil {
					return errkind.WrapIO(err)
				}
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Gather subscribes msgID on every client connection in parallel and
// returns the collected payloads sorted by client id.
func (p *Pool) Gather(ctx context.Context, msgID uint64) ([]ClientPayload, error) {
	ids := p.ClientIDs()
	results := make([]ClientPayload, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		conn, err := p.get(id)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			sub, err := conn.Subscribe(msgID)
			if err != nil {
				return err
			}
			select {
			case payload, ok := <-sub:
				if !ok {
					return errkind.WrapIO(bridge.ErrClosed)
				}
				results[i] = ClientPayload{ClientID: id, Payload: payload}
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SplitByParity divides the pool's clients into two sub-pools by the
// parity of their client id, used to load-balance work across sockets.
func (p *Pool) SplitByParity() (even, odd *Pool) {
	even = &Pool{logger: p.logger.New("split", "even"), conns: make(map[uint64]*bridge.Connection)}
	odd = &Pool{logger: p.logger.New("split", "odd"), conns: make(map[uint64]*bridge.Connection)}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, conn := range p.conns {
		if id%2 == 0 {
			even.Add(id, conn)
		} else {
			odd.Add(id, conn)
		}
	}
	return even, odd
}

// BytesTotals sums the payload bytes sent and received across every
// client connection currently registered in the pool.
func (p *Pool) BytesTotals() (sent, recv uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, conn := range p.conns {
		sent += conn.BytesSent()
		recv += conn.BytesRecv()
	}
	return sent, recv
}

// Merge combines several pools' client connections into one. Later
// pools' entries win on a colliding client id.
func Merge(id string, pools ...*Pool) *Pool {
	merged := New(id)
	for _, p := range pools {
		p.mu.RLock()
		for clientID, conn := range p.conns {
			merged.conns[clientID] = conn
		}
		p.mu.RUnlock()
	}
	return merged
}
