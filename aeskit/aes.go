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

// Package aeskit implements the AES-128 key-schedule kit, a batched ECB
// primitive over K independent keys, the MiTCCR tweakable
// correlation-robust hash, and a counter-mode seeded block RNG: the block
// cipher toolkit shared by the COT/ROT and B2A layers.
package aeskit

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/getamis/fedmpc/block"
)

// ErrWrongInput is returned when batch sizes don't line up.
var ErrWrongInput = errors.New("aeskit: wrong input")

// KeySchedule is a single AES-128 round-key schedule.
type KeySchedule struct {
	cipher cipher.Block
}

// NewKeySchedule derives a round-key schedule from a 128-bit seed block.
func NewKeySchedule(seed block.Block) (*KeySchedule, error) {
	raw := seed.Bytes()
	c, err := aes.NewCipher(raw[:])
	if err != nil {
		return nil, err
	}
	return &KeySchedule{cipher: c}, nil
}

// Encrypt encrypts a single plaintext block.
func (k *KeySchedule) Encrypt(pt block.Block) block.Block {
	raw := pt.Bytes()
	var out [16]byte
	k.cipher.Encrypt(out[:], raw[:])
	ct, _ := block.FromBytes(out[:])
	return ct
}

// BatchedKeySchedule derives K independent schedules from K seed blocks.
type BatchedKeySchedule struct {
	schedules []*KeySchedule
}

// NewBatchedKeySchedule builds K schedules, one per seed.
func NewBatchedKeySchedule(seeds []block.Block) (*BatchedKeySchedule, error) {
	schedules := make([]*KeySchedule, len(seeds))
	for i, s := range seeds {
		ks, err := NewKeySchedule(s)
		if err != nil {
			return nil, err
		}
		schedules[i] = ks
	}
	return &BatchedKeySchedule{schedules: schedules}, nil
}

// K is the fanout (number of independent keys).
func (b *BatchedKeySchedule) K() int { return len(b.schedules) }

// ParallelECB encrypts N*K blocks under K keys: block i*N..(i+1)*N is
// encrypted under key i. len(pt) must equal N*K for some N.
func (b *BatchedKeySchedule) ParallelECB(pt []block.Block) ([]block.Block, error) {
	k := b.K()
	if k == 0 || len(pt)%k != 0 {
		return nil, ErrWrongInput
	}
	n := len(pt) / k
	out := make([]block.Block, len(pt))
	for i := 0; i < k; i++ {
		ks := b.schedules[i]
		for j := 0; j < n; j++ {
			out[i*n+j] = ks.Encrypt(pt[i*n+j])
		}
	}
	return out, nil
}
