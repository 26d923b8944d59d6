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

package protocol

import (
	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/wire"
)

// messageBase is the fixed per-client message-id stride on the mpcconn
// pool: each client gets its own run of ids so concurrent clients never
// collide, matching §4.11's "correctness relies exclusively on message
// ids being unique." Each slot below reserves two ids (one per
// direction, offsets 2*slot and 2*slot+1), so the stride must exceed
// twice the highest slot plus one.
const messageBase = 16

const (
	msgSeeds = iota
	msgReceiverChallenge
	msgB2AMessage
	msgSquareRound1
	msgSquareVerifyRound1
	msgSquareVerifyRound2
)

func clientMsgID(clientID uint64, slot uint64) uint64 {
	return clientID*messageBase + slot
}

// senderToReceiverID and receiverToSenderID are the two fixed ids a slot
// reserves, named for the direction of the message that travels on them
// — independent of which party is asking, so both sides agree on the
// same two ids without a third handshake.
func senderToReceiverID(clientID uint64, slot uint64) uint64 {
	return clientMsgID(clientID, slot*2)
}

func receiverToSenderID(clientID uint64, slot uint64) uint64 {
	return clientMsgID(clientID, slot*2+1)
}

// directedIDs resolves a bidirectional slot's (sendID, recvID) pair from
// one role's point of view.
func directedIDs(clientID uint64, slot uint64, role Role) (sendID, recvID uint64) {
	if role == Sender {
		return senderToReceiverID(clientID, slot), receiverToSenderID(clientID, slot)
	}
	return receiverToSenderID(clientID, slot), senderToReceiverID(clientID, slot)
}

func encodeSeedPair(chiSeed, tSeed uint64) []byte {
	var buf []byte
	buf = wire.PutUint64(buf, chiSeed)
	buf = wire.PutUint64(buf, tSeed)
	return buf
}

func decodeSeedPair(payload []byte) (chiSeed, tSeed uint64, err error) {
	chiSeed, rest, err := wire.GetUint64(payload)
	if err != nil {
		return 0, 0, err
	}
	tSeed, _, err = wire.GetUint64(rest)
	if err != nil {
		return 0, 0, err
	}
	return chiSeed, tSeed, nil
}

func encodeReceiverChallenge(c cot.ReceiverChallenge) []byte {
	var buf []byte
	buf = wire.PutBytes(buf, blockBytes(c.XTil))
	buf = wire.PutBytes(buf, blockBytes(c.TTil.Low))
	buf = wire.PutBytes(buf, blockBytes(c.TTil.High))
	return buf
}

func decodeReceiverChallenge(payload []byte) (cot.ReceiverChallenge, error) {
	xTilBytes, rest, err := wire.GetBytes(payload)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	xTil, err := block.FromBytes(xTilBytes)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	lowBytes, rest, err := wire.GetBytes(rest)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	low, err := block.FromBytes(lowBytes)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	highBytes, _, err := wire.GetBytes(rest)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	high, err := block.FromBytes(highBytes)
	if err != nil {
		return cot.ReceiverChallenge{}, err
	}
	return cot.ReceiverChallenge{XTil: xTil, TTil: block.GF2_256{Low: low, High: high}}, nil
}

func blockBytes(b block.Block) []byte {
	bs := b.Bytes()
	return bs[:]
}

func encodeUint64(x uint64) []byte {
	var buf []byte
	return wire.PutUint64(buf, x)
}

func decodeUint64(payload []byte) (uint64, error) {
	x, _, err := wire.GetUint64(payload)
	return x, err
}

func encodeUint64Slice(xs []uint64) []byte {
	var buf []byte
	buf = wire.PutUint64(buf, uint64(len(xs)))
	for _, x := range xs {
		buf = wire.PutUint64(buf, x)
	}
	return buf
}

func decodeUint64Slice(payload []byte, want int) ([]uint64, error) {
	n, rest, err := wire.GetUint64(payload)
	if err != nil {
		return nil, err
	}
	if int(n) != want {
		return nil, cot.ErrWrongInput
	}
	out := make([]uint64, n)
	for i := range out {
		var x uint64
		x, rest, err = wire.GetUint64(rest)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
