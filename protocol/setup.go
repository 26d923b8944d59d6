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
	"github.com/getamis/fedmpc/bits"
	"github.com/getamis/fedmpc/block"
	"github.com/getamis/fedmpc/cot"
	"github.com/getamis/fedmpc/ring"
	"github.com/getamis/fedmpc/sqcorr"
	"github.com/getamis/fedmpc/wire"
)

// SenderSetup bundles what a client hands the server playing OT sender /
// square-correlation Alice for this client: its boolean share of the
// client's input plus the two correlations RunSenderClient needs. This is
// the one piece of client-contributed material the bridge transport
// carries; §9's "const-generic party parameter" note leaves the
// trusted-dealer style generation of the correlations themselves out of
// scope (see the base-OT discussion in the design notes), so the
// client plays dealer here for demonstration purposes.
type SenderSetup[W ring.Unsigned] struct {
	X0Bits []uint8
	Half   cot.SenderHalf
	Main   sqcorr.Share[W]
	Sac    sqcorr.Share[W]
}

// ReceiverSetup is the mirror for the OT receiver / square-correlation
// Bob side.
type ReceiverSetup[W ring.Unsigned] struct {
	X1Bits []uint8
	Half   cot.ReceiverHalf
	Main   sqcorr.Share[W]
	Sac    sqcorr.Share[W]
}

// EncodeSenderSetup serializes a SenderSetup as a length-prefixed frame
// payload.
func EncodeSenderSetup[W ring.Unsigned](s SenderSetup[W]) ([]byte, error) {
	var buf []byte
	buf = putBits(buf, s.X0Bits)
	deltaBytes := s.Half.Delta.Bytes()
	buf = wire.PutBytes(buf, deltaBytes[:])
	qsSeedBytes := block.Block(s.Half.QsSeed).Bytes()
	buf = wire.PutBytes(buf, qsSeedBytes[:])
	buf = putShare(buf, s.Main)
	buf = putShare(buf, s.Sac)
	return buf, nil
}

// DecodeSenderSetup parses a frame payload produced by EncodeSenderSetup.
func DecodeSenderSetup[W ring.Unsigned](payload []byte) (SenderSetup[W], error) {
	x0Bits, rest, err := getBits(payload)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	deltaBytes, rest, err := wire.GetBytes(rest)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	delta, err := block.FromBytes(deltaBytes)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	qsSeedBytes, rest, err := wire.GetBytes(rest)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	qsSeedBlock, err := block.FromBytes(qsSeedBytes)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	main, rest, err := getShare[W](rest)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	sac, _, err := getShare[W](rest)
	if err != nil {
		return SenderSetup[W]{}, err
	}
	return SenderSetup[W]{
		X0Bits: x0Bits,
		Half:   cot.SenderHalf{Delta: delta, QsSeed: cot.COTSeed(qsSeedBlock)},
		Main:   main,
		Sac:    sac,
	}, nil
}

// EncodeReceiverSetup serializes a ReceiverSetup as a length-prefixed
// frame payload.
func EncodeReceiverSetup[W ring.Unsigned](s ReceiverSetup[W]) ([]byte, error) {
	var buf []byte
	buf = putBits(buf, s.X1Bits)
	buf = wire.PutUint64(buf, uint64(s.Half.ChoiceSeed))
	buf = wire.PutUint64(buf, uint64(len(s.Half.Ts)))
	for _, t := range s.Half.Ts {
		tb := t.Bytes()
		buf = wire.PutBytes(buf, tb[:])
	}
	buf = putShare(buf, s.Main)
	buf = putShare(buf, s.Sac)
	return buf, nil
}

// DecodeReceiverSetup parses a frame payload produced by
// EncodeReceiverSetup.
func DecodeReceiverSetup[W ring.Unsigned](payload []byte) (ReceiverSetup[W], error) {
	x1Bits, rest, err := getBits(payload)
	if err != nil {
		return ReceiverSetup[W]{}, err
	}
	choiceSeedRaw, rest, err := wire.GetUint64(rest)
	if err != nil {
		return ReceiverSetup[W]{}, err
	}
	n, rest, err := wire.GetUint64(rest)
	if err != nil {
		return ReceiverSetup[W]{}, err
	}
	ts := make([]block.Block, n)
	for i := range ts {
		var tb []byte
		tb, rest, err = wire.GetBytes(rest)
		if err != nil {
			return ReceiverSetup[W]{}, err
		}
		ts[i], err = block.FromBytes(tb)
		if err != nil {
			return ReceiverSetup[W]{}, err
		}
	}
	main, rest, err := getShare[W](rest)
	if err != nil {
		return ReceiverSetup[W]{}, err
	}
	sac, _, err := getShare[W](rest)
	if err != nil {
		return ReceiverSetup[W]{}, err
	}
	return ReceiverSetup[W]{
		X1Bits: x1Bits,
		Half:   cot.ReceiverHalf{ChoiceSeed: cot.ChoiceSeed(choiceSeedRaw), Ts: ts},
		Main:   main,
		Sac:    sac,
	}, nil
}

func putBits(buf []byte, bitSlice []uint8) []byte {
	buf = wire.PutUint64(buf, uint64(len(bitSlice)))
	packed, _ := bits.BitsToBytes(bitSlice)
	return wire.PutBytes(buf, packed)
}

func getBits(payload []byte) ([]uint8, []byte, error) {
	width, rest, err := wire.GetUint64(payload)
	if err != nil {
		return nil, nil, err
	}
	packed, rest, err := wire.GetBytes(rest)
	if err != nil {
		return nil, nil, err
	}
	return bits.BytesToBits(packed)[:width], rest, nil
}

func putShare[W ring.Unsigned](buf []byte, s sqcorr.Share[W]) []byte {
	buf = wire.PutUint64(buf, s.A.Uint64())
	return wire.PutUint64(buf, s.C.Uint64())
}

func getShare[W ring.Unsigned](payload []byte) (sqcorr.Share[W], []byte, error) {
	a, rest, err := wire.GetUint64(payload)
	if err != nil {
		return sqcorr.Share[W]{}, nil, err
	}
	c, rest, err := wire.GetUint64(rest)
	if err != nil {
		return sqcorr.Share[W]{}, nil, err
	}
	return sqcorr.Share[W]{A: ring.FromUint64[W](a), C: ring.FromUint64[W](c)}, rest, nil
}
