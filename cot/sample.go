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
	"github.com/getamis/fedmpc/block"
)

// SenderHalf is what the OT sender (Alice-side of this COT) receives from
// the client: (delta, qs_seed).
type SenderHalf struct {
	Delta  block.Block
	QsSeed COTSeed
}

// ReceiverHalf is what the OT receiver (Bob-side of this COT) receives
// from the client: (choice_seed, ts). The receiver's full choice vector is
// inputs1 (known to it already) concatenated with expand(choice_seed).
type ReceiverHalf struct {
	ChoiceSeed ChoiceSeed
	Ts         []block.Block
}

// Sample generates a COT batch from the client's choice bits inputs1. It
// returns the two halves handed to Alice and Bob respectively, and the
// full choice vector (inputs1 ++ overhead bits) for the receiver's later
// use during verification.
func Sample(inputs1 []uint8, delta block.Block, overhead int) (SenderHalf, ReceiverHalf, []uint8, error) {
	qsSeed, err := RandomCOTSeed()
	if err != nil {
		return SenderHalf{}, ReceiverHalf{}, nil, err
	}
	choiceSeed, err := RandomChoiceSeed()
	if err != nil {
		return SenderHalf{}, ReceiverHalf{}, nil, err
	}

	total := len(inputs1) + overhead
	qs, err := qsSeed.Expand(total)
	if err != nil {
		return SenderHalf{}, ReceiverHalf{}, nil, err
	}
	overheadChoices, err := choiceSeed.Expand(overhead)
	if err != nil {
		return SenderHalf{}, ReceiverHalf{}, nil, err
	}

	fullChoices := make([]uint8, 0, total)
	fullChoices = append(fullChoices, inputs1...)
	fullChoices = append(fullChoices, overheadChoices...)

	ts := make([]block.Block, total)
	for i := range ts {
		if fullChoices[i] != 0 {
			ts[i] = qs[i].Xor(delta)
		} else {
			ts[i] = qs[i]
		}
	}

	return SenderHalf{Delta: delta, QsSeed: qsSeed},
		ReceiverHalf{ChoiceSeed: choiceSeed, Ts: ts},
		fullChoices,
		nil
}

// FullChoices reconstructs the receiver's full choice vector given the
// inputs1 it already knows.
func (r ReceiverHalf) FullChoices(inputs1 []uint8) ([]uint8, error) {
	overhead := len(r.Ts) - len(inputs1)
	if overhead < 0 {
		return nil, ErrWrongInput
	}
	tail, err := r.ChoiceSeed.Expand(overhead)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, len(r.Ts))
	out = append(out, inputs1...)
	out = append(out, tail...)
	return out, nil
}

// Invariant checks ts[i] == qs[i] XOR (choice[i] ? delta : 0) for every i;
// used by tests, not by the live protocol (which trusts the MAC check).
func (r ReceiverHalf) Invariant(s SenderHalf, fullChoices []uint8) (bool, error) {
	qs, err := s.QsSeed.Expand(len(r.Ts))
	if err != nil {
		return false, err
	}
	for i, q := range qs {
		want := q
		if fullChoices[i] != 0 {
			want = q.Xor(s.Delta)
		}
		if !want.Equal(r.Ts[i]) {
			return false, nil
		}
	}
	return true, nil
}
