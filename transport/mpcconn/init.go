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

package mpcconn

import (
	"context"
	"net"
	"time"

	"github.com/getamis/fedmpc/errkind"
)

// dialRetryBackoff is the pause between failed server-to-server dial
// attempts. Servers come up asynchronously, so a connection refused on
// the first attempt is expected and retried indefinitely rather than
// treated as fatal.
const dialRetryBackoff = 100 * time.Millisecond

// AcceptN binds addr and accepts exactly n connections off it, in the
// order they arrive, then wraps them into a Pool. This is the "Alice"
// side of §4.11's initialization: whoever is designated binds and
// accepts N times.
func AcceptN(ctx context.Context, id, addr string, n int) (*Pool, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errkind.WrapIO(err)
	}
	defer ln.Close()

	conns := make([]net.Conn, 0, n)
	for i := 0; i < n; i++ {
		type acceptResult struct {
			conn net.Conn
			err  error
		}
		resCh := make(chan acceptResult, 1)
		go func() {
			conn, err := ln.Accept()
			resCh <- acceptResult{conn, err}
		}()
		select {
		case res := <-resCh:
			if res.err != nil {
				closeAll(conns)
				return nil, errkind.WrapIO(res.err)
			}
			conns = append(conns, res.conn)
		case <-ctx.Done():
			closeAll(conns)
			return nil, ctx.Err()
		}
	}
	return New(id, conns), nil
}

// DialN connects to addr exactly n times, then wraps the resulting
// sockets into a Pool. This is the "Bob" side of §4.11's initialization.
func DialN(ctx context.Context, id, addr string, n int) (*Pool, error) {
	conns := make([]net.Conn, 0, n)
	var d net.Dialer
	for i := 0; i < n; i++ {
		conn, err := dialOrRetry(ctx, &d, addr, dialRetryBackoff)
		if err != nil {
			closeAll(conns)
			return nil, err
		}
		conns = append(conns, conn)
	}
	return New(id, conns), nil
}

// dialOrRetry dials addr, retrying indefinitely with backoff between
// attempts until it succeeds or ctx is done. The peer side comes up
// asynchronously, so a refused or unreachable connection is routine at
// startup rather than fatal.
func dialOrRetry(ctx context.Context, d *net.Dialer, addr string, backoff time.Duration) (net.Conn, error) {
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, errkind.WrapIO(ctx.Err())
		}
	}
}

func closeAll(conns []net.Conn) {
	for _, c := range conns {
		c.Close()
	}
}
