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
	"encoding/binary"

	"github.com/getamis/fedmpc/errkind"
	"github.com/getamis/fedmpc/wire"
)

// RegistrationMessageID is the reserved message id (0) a client's first
// frame always carries, per §3: payload is the client's u64 id.
const RegistrationMessageID = 0

// Register sends this connection's client id on the reserved
// registration message id. Called by the client immediately after dial.
func (c *Connection) Register(ctx context.Context, clientID uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], clientID)
	select {
	case err := <-c.SendMessage(RegistrationMessageID, buf[:]):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitRegistration blocks for the client id carried by the first frame.
// Called by the server immediately after accept.
func AwaitRegistration(ctx context.Context, c *Connection) (uint64, error) {
	sub, err := c.Subscribe(RegistrationMessageID)
	if err != nil {
		return 0, err
	}
	select {
	case payload, ok := <-sub:
		if !ok {
			return 0, errkind.WrapIO(ErrClosed)
		}
		if len(payload) != 8 {
			return 0, errkind.WrapSerialization(wire.ErrShortRead)
		}
		return binary.LittleEndian.Uint64(payload), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
