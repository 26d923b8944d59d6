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

package b2a

import (
	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/ring"
)

// SenderPhase runs the sender's (boolean-share-0 holder's) half of one
// boolean-to-arithmetic conversion over a ring of width W. It consumes a
// COT sender batch of exactly W positions and returns its arithmetic
// share z0 plus the per-bit messages u that must be sent to the receiver.
//
// Per bit i, width j = W-i-1 bounds the carry that bit can still
// contribute; the top bit (i = W-1, j = 0) contributes no carry at all.
func SenderPhase[W ring.Unsigned](x0Bits []uint8, qs []block.Block, delta block.Block, seed block.Block) (ring.Ring[W], []uint64, error) {
	w := ring.Width[W]()
	if len(x0Bits) != w || len(qs) != w {
		return ring.Ring[W]{}, nil, ErrWrongInput
	}
	v0, v1, err := cot.TrimSenderROT(qs, delta, seed, w)
	if err != nil {
		return ring.Ring[W]{}, nil, err
	}
	msg := make([]uint64, w)
	var z uint64
	for i := 0; i < w; i++ {
		j := w - i - 1
		y0, u := BitMulSender(x0Bits[i], v0[i], v1[i], j)
		msg[i] = u
		term := uint64(x0Bits[i]) - 2*y0
		z += term << uint(i)
	}
	return ring.FromUint64[W](z), msg, nil
}

// ReceiverPhase runs the receiver's (boolean-share-1 holder's) half: it
// consumes the matching COT receiver batch and the sender's messages,
// and returns its arithmetic share z1, with z0+z1 = x0 XOR x1 mod 2^W.
func ReceiverPhase[W ring.Unsigned](x1Bits []uint8, ts []block.Block, seed block.Block, msg []uint64) (ring.Ring[W], error) {
	w := ring.Width[W]()
	if len(x1Bits) != w || len(ts) != w || len(msg) != w {
		return ring.Ring[W]{}, ErrWrongInput
	}
	vSel, err := cot.TrimReceiverROT(ts, seed, w)
	if err != nil {
		return ring.Ring[W]{}, err
	}
	var z uint64
	for i := 0; i < w; i++ {
		j := w - i - 1
		y1 := BitMulReceiver(x1Bits[i], vSel[i], msg[i], j)
		term := uint64(x1Bits[i]) - 2*y1
		z += term << uint(i)
	}
	return ring.FromUint64[W](z), nil
}

// BatchSenderPhase runs SenderPhase for N values at once, consuming a
// single COT sender batch of N*W positions sliced per value. Every value
// gets its own MiTCCR tweak by deriving a distinct seed per index, so
// the batching is purely an efficiency device over the underlying
// per-value protocol, not a change in what each value reveals.
func BatchSenderPhase[W ring.Unsigned](x0Bits [][]uint8, qs []block.Block, delta block.Block, seed block.Block) ([]ring.Ring[W], [][]uint64, error) {
	w := ring.Width[W]()
	n := len(x0Bits)
	if len(qs) != n*w {
		return nil, nil, ErrWrongInput
	}
	z0s := make([]ring.Ring[W], n)
	msgs := make([][]uint64, n)
	for v := 0; v < n; v++ {
		valueSeed := seed.Xor(block.New(uint64(v), 0))
		z0, msg, err := SenderPhase[W](x0Bits[v], qs[v*w:(v+1)*w], delta, valueSeed)
		if err != nil {
			return nil, nil, err
		}
		z0s[v] = z0
		msgs[v] = msg
	}
	return z0s, msgs, nil
}

// BatchReceiverPhase is the matching batched receiver half.
func BatchReceiverPhase[W ring.Unsigned](x1Bits [][]uint8, ts []block.Block, seed block.Block, msgs [][]uint64) ([]ring.Ring[W], error) {
	w := ring.Width[W]()
	n := len(x1Bits)
	if len(ts) != n*w || len(msgs) != n {
		return nil, ErrWrongInput
	}
	z1s := make([]ring.Ring[W], n)
	for v := 0; v < n; v++ {
		valueSeed := seed.Xor(block.New(uint64(v), 0))
		z1, err := ReceiverPhase[W](x1Bits[v], ts[v*w:(v+1)*w], valueSeed, msgs[v])
		if err != nil {
			return nil, err
		}
		z1s[v] = z1
	}
	return z1s, nil
}
