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

import "github.com/getamis/fedmpc/block"

// MiTCCR is a multi-instance tweakable correlation-robust hash with fanout
// K. It owns a start point and a counter; every call to Hash renews its K
// keys first, so the call index itself serves as the tweak.
type MiTCCR struct {
	start   block.Block
	counter uint64
	k       int

	schedule *BatchedKeySchedule
}

// NewMiTCCR creates a MiTCCR instance with the given fanout K, seeded by
// start.
func NewMiTCCR(start block.Block, k int) (*MiTCCR, error) {
	m := &MiTCCR{start: start, k: k}
	if err := m.renewKeys(); err != nil {
		return nil, err
	}
	return m, nil
}

// renewKeys derives K keys as start XOR (counter+j, 0) for j in [0,K), then
// advances the counter by K.
func (m *MiTCCR) renewKeys() error {
	seeds := make([]block.Block, m.k)
	for j := 0; j < m.k; j++ {
		tweak := block.New(m.counter+uint64(j), 0)
		seeds[j] = m.start.Xor(tweak)
	}
	schedule, err := NewBatchedKeySchedule(seeds)
	if err != nil {
		return err
	}
	m.schedule = schedule
	m.counter += uint64(m.k)
	return nil
}

// Hash consumes input of length K*h (h instances of an H-block message),
// renewing keys first, encrypting under the fresh schedule, then applying
// a Davies-Meyer XOR of plaintext and ciphertext.
func (m *MiTCCR) Hash(input []block.Block, h int) ([]block.Block, error) {
	if len(input) != m.k*h {
		return nil, ErrWrongInput
	}
	if err := m.renewKeys(); err != nil {
		return nil, err
	}
	ct, err := m.schedule.ParallelECB(input)
	if err != nil {
		return nil, err
	}
	out := make([]block.Block, len(input))
	for i := range input {
		out[i] = input[i].Xor(ct[i])
	}
	return out, nil
}

// HashTrimmed is Hash followed by truncation of every output block to its
// low width bits (used by COT-to-trimmed-ROT conversion).
func (m *MiTCCR) HashTrimmed(input []block.Block, h int, width int) ([]uint64, error) {
	out, err := m.Hash(input, h)
	if err != nil {
		return nil, err
	}
	trimmed := make([]uint64, len(out))
	for i, b := range out {
		if width >= 64 {
			trimmed[i] = b.Lo
			continue
		}
		mask := uint64(1)<<uint(width) - 1
		trimmed[i] = b.Lo & mask
	}
	return trimmed, nil
}
