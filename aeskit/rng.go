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

package aeskit

import (
	"crypto/rand"

	"github.com/getamis/fedmpc/block"
)

const rngBatchSize = 8

// SeededBlockRNG is a counter-mode AES stream: key derived from an
// optional seed, state a 64-bit counter starting at 0. Producing N blocks
// is deterministic and associative: two successive calls summing to N
// blocks produce the same stream as one call of N blocks.
type SeededBlockRNG struct {
	schedule *KeySchedule
	counter  uint64
}

// NewSeededBlockRNG derives a stream keyed by seed. If seed is nil, a
// fresh random key is drawn from crypto/rand.
func NewSeededBlockRNG(seed *block.Block) (*SeededBlockRNG, error) {
	var key block.Block
	if seed != nil {
		key = *seed
	} else {
		var buf [16]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, err
		}
		k, err := block.FromBytes(buf[:])
		if err != nil {
			return nil, err
		}
		key = k
	}
	ks, err := NewKeySchedule(key)
	if err != nil {
		return nil, err
	}
	return &SeededBlockRNG{schedule: ks}, nil
}

// RandomBlocks fills n blocks with AES_K(counter, 0), processed 8 blocks
// at a time with a trailing remainder.
func (r *SeededBlockRNG) RandomBlocks(n int) []block.Block {
	out := make([]block.Block, n)
	i := 0
	for ; i+rngBatchSize <= n; i += rngBatchSize {
		r.fillBatch(out[i : i+rngBatchSize])
	}
	if i < n {
		r.fillBatch(out[i:n])
	}
	return out
}

func (r *SeededBlockRNG) fillBatch(out []block.Block) {
	for i := range out {
		pt := block.New(r.counter, 0)
		out[i] = r.schedule.Encrypt(pt)
		r.counter++
	}
}
