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

package cot

import (
	"github.com/getamis/fedmpc/aeskit"
	"github.com/getamis/fedmpc/block"
)

// mitccrFanout is the fixed fanout used to convert COT into trimmed ROT.
const mitccrFanout = 8

// TrimSenderROT converts a sender's COT batch (qs, delta) into trimmed ROT
// labels: for every position i it returns (y0[i], y1[i]) truncated to
// width bits, grounded on hashing the pair [q_i, q_i XOR delta] through
// MiTCCR. len(qs) must be a multiple of 8.
func TrimSenderROT(qs []block.Block, delta block.Block, seed block.Block, width int) (y0, y1 []uint64, err error) {
	if len(qs)%mitccrFanout != 0 {
		return nil, nil, ErrUnalignedBatch
	}
	m, err := aeskit.NewMiTCCR(seed, mitccrFanout)
	if err != nil {
		return nil, nil, err
	}
	y0 = make([]uint64, len(qs))
	y1 = make([]uint64, len(qs))
	input := make([]block.Block, 2*mitccrFanout)
	for b := 0; b < len(qs); b += mitccrFanout {
		for i := 0; i < mitccrFanout; i++ {
			input[2*i] = qs[b+i]
			input[2*i+1] = qs[b+i].Xor(delta)
		}
		out, err := m.Hash(input, 2)
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < mitccrFanout; i++ {
			y0[b+i] = trimBlock(out[2*i], width)
			y1[b+i] = trimBlock(out[2*i+1], width)
		}
	}
	return y0, y1, nil
}

// TrimReceiverROT converts a receiver's COT batch (ts) into trimmed ROT
// labels, one per position, truncated to width bits. len(ts) must be a
// multiple of 8.
func TrimReceiverROT(ts []block.Block, seed block.Block, width int) ([]uint64, error) {
	if len(ts)%mitccrFanout != 0 {
		return nil, ErrUnalignedBatch
	}
	m, err := aeskit.NewMiTCCR(seed, mitccrFanout)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(ts))
	for b := 0; b < len(ts); b += mitccrFanout {
		hashed, err := m.Hash(ts[b:b+mitccrFanout], 1)
		if err != nil {
			return nil, err
		}
		for i := 0; i < mitccrFanout; i++ {
			out[b+i] = trimBlock(hashed[i], width)
		}
	}
	return out, nil
}

func trimBlock(b block.Block, width int) uint64 {
	if width >= 64 {
		return b.Lo
	}
	mask := uint64(1)<<uint(width) - 1
	return b.Lo & mask
}
