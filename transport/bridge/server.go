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

package bridge

import (
	"context"
	"net"
	"time"

	"github.com/getamis/fedmpc/errkind"
)

// dialRetryBackoff is the pause between failed client dial attempts. A
// client may start before a server's listener is up, so a refused
// connection on the first attempt is expected and retried indefinitely
// rather than treated as fatal.
const dialRetryBackoff = 10 * time.Millisecond

// Listen opens a TCP listener for client connections.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errkind.WrapIO(err)
	}
	return ln, nil
}

// Accept takes the next incoming client connection off ln, wraps it, and
// blocks for its registration frame. Returns the connection and the
// client id it registered with.
func Accept(ctx context.Context, id string, ln net.Listener) (*Connection, uint64, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, 0, errkind.WrapIO(err)
	}
	c := NewConnection(id, conn)
	clientID, err := AwaitRegistration(ctx, c)
	if err != nil {
		_ = c.Close()
		return nil, 0, err
	}
	return c, clientID, nil
}

// Dial opens a client connection to a server and registers clientID.
func Dial(ctx context.Context, id string, addr string, clientID uint64) (*Connection, error) {
	var d net.Dialer
	conn, err := dialOrRetry(ctx, &d, addr, dialRetryBackoff)
	if err != nil {
		return nil, err
	}
	c := NewConnection(id, conn)
	if err := c.Register(ctx, clientID); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// dialOrRetry dials addr, retrying indefinitely with backoff between
// attempts until it succeeds or ctx is done.
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
