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

// DeriveChi produces n challenge blocks deterministically from a shared
// seed, identical on both servers since they share chiSeed via Fiat-Shamir.
func DeriveChi(chiSeed block.Block, n int) ([]block.Block, error) {
	rng, err := aeskit.NewSeededBlockRNG(&chiSeed)
	if err != nil {
		return nil, err
	}
	return rng.RandomBlocks(n), nil
}

// ReceiverChallenge is what the OT receiver sends to the sender in the
// MAC-then-check verification round: x_til is a GF(2^128) boolean-scalar
// sum, t_til is a full GF(2^256) sum.
type ReceiverChallenge struct {
	XTil block.Block
	TTil block.GF2_256
}

// ReceiverVerify computes the receiver's half of the chi-based MAC check.
func ReceiverVerify(ts []block.Block, fullChoices []uint8, chi []block.Block) (ReceiverChallenge, error) {
	if len(ts) != len(chi) || len(fullChoices) != len(chi) {
		return ReceiverChallenge{}, ErrWrongInput
	}
	xTil, err := block.InnerProductWithBooleanScalar(fullChoices, chi)
	if err != nil {
		return ReceiverChallenge{}, err
	}
	tTil, err := block.InnerProduct(ts, chi)
	if err != nil {
		return ReceiverChallenge{}, err
	}
	return ReceiverChallenge{XTil: xTil, TTil: tTil}, nil
}

// SenderVerify computes the sender's half of the MAC check and reports
// whether the receiver's challenge is consistent with (delta, qs_seed).
func SenderVerify(qsSeed COTSeed, delta block.Block, chi []block.Block, challenge ReceiverChallenge) (bool, error) {
	qs, err := qsSeed.Expand(len(chi))
	if err != nil {
		return false, err
	}
	qTil, err := block.InnerProduct(qs, chi)
	if err != nil {
		return false, err
	}
	deltaXTil := delta.Mul(challenge.XTil)
	want := qTil.Xor(deltaXTil)
	return want == challenge.TTil, nil
}
