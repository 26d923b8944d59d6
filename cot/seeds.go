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

// Package cot implements the correlated-OT / random-OT layer: seeded
// generation, chi-based MAC verification, and conversion to trimmed ROT
// via MiTCCR.
package cot

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"

	"github.com/getamis/fedmpc/aeskit"
	"github.com/getamis/fedmpc/bits"
	"github.com/getamis/fedmpc/block"
)

// ErrWrongInput is returned for mismatched batch lengths.
var ErrWrongInput = errors.New("cot: wrong input")

// ErrUnalignedBatch is returned when a COT batch isn't a multiple of the
// MiTCCR fanout (8) required for trimming.
var ErrUnalignedBatch = errors.New("cot: unaligned COT batch")

// ErrFailedVerify is returned when the sender-side MAC check fails.
var ErrFailedVerify = errors.New("cot: failed to verify")

// VerificationOverhead is the fixed number of extra verification COTs
// appended to every batch, named per spec §9.
const VerificationOverhead = 194

// COTSeed deterministically expands to the first halves of a COT batch.
type COTSeed block.Block

// Expand produces n pseudorandom blocks from the seed.
func (s COTSeed) Expand(n int) ([]block.Block, error) {
	seedBlock := block.Block(s)
	rng, err := aeskit.NewSeededBlockRNG(&seedBlock)
	if err != nil {
		return nil, err
	}
	return rng.RandomBlocks(n), nil
}

// RandomCOTSeed draws a fresh seed.
func RandomCOTSeed() (COTSeed, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return COTSeed{}, err
	}
	b, err := block.FromBytes(buf[:])
	if err != nil {
		return COTSeed{}, err
	}
	return COTSeed(b), nil
}

// ChoiceSeed deterministically expands to a vector of choice bits, one
// []uint8 entry (0 or 1) per bit.
type ChoiceSeed uint64

// Expand produces n pseudorandom choice bits from the seed, via the
// ChaCha20-based stream of §4.5's boolean-share-split PRNG.
func (s ChoiceSeed) Expand(n int) ([]uint8, error) {
	return bits.ExpandChaCha(uint64(s), n)
}

// RandomChoiceSeed draws a fresh seed.
func RandomChoiceSeed() (ChoiceSeed, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return ChoiceSeed(binary.LittleEndian.Uint64(buf[:])), nil
}

// SeededShare is a party's compact boolean share: a seed that expands
// deterministically to a vector of bits, plus explicit bits such that
// expand(seed) XOR explicitBits == value.
type SeededShare struct {
	Seed         uint64
	ExplicitBits []uint8
}

// Reconstruct recovers the logical value this share commits to.
func (s SeededShare) Reconstruct() ([]uint8, error) {
	mask, err := ChoiceSeed(s.Seed).Expand(len(s.ExplicitBits))
	if err != nil {
		return nil, err
	}
	return bits.Xor(mask, s.ExplicitBits)
}

// SplitBooleanShare draws a seed and returns (seed, inputs_1) such that
// expand(seed) XOR inputs == inputs_1, per §4.5.
func SplitBooleanShare(inputs []uint8, rng io.Reader) (ChoiceSeed, []uint8, error) {
	seed, err := RandomChoiceSeed()
	if err != nil {
		return 0, nil, err
	}
	mask, err := seed.Expand(len(inputs))
	if err != nil {
		return 0, nil, err
	}
	inputs1, err := bits.Xor(mask, inputs)
	if err != nil {
		return 0, nil, err
	}
	return seed, inputs1, nil
}
