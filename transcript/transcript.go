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

// Package transcript implements the simulate-and-hash malicious-privacy
// check of §4.9: one hash context per transcript direction per client,
// absorbing length-prefixed byte strings, compared via Fiat-Shamir
// derived challenge seeds.
package transcript

import (
	"encoding/binary"
	"errors"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/any"
	"golang.org/x/crypto/blake2b"
)

// ErrWrongInput is returned when a digest is too short to slice into
// challenge seeds.
var ErrWrongInput = errors.New("transcript: wrong input")

// Direction names the per-client hash contexts named in §4.9. SqCorrBA is
// kept as "sqcorr_ba" exactly as marked "TODO change back" upstream —
// every other direction is "Capitalized-AB"/"-BA"; this one alone is not,
// and that discrepancy is preserved rather than silently normalized.
const (
	DirectionB2AAB    = "B2A-AB"
	DirectionOTBA     = "OT-BA"
	DirectionA2SAB    = "A2S-AB"
	DirectionA2SBA    = "A2S-BA"
	DirectionSqCorrAB = "SqCorr-AB"
	DirectionSqCorrBA = "sqcorr_ba"
)

// Context accumulates a single transcript direction's absorbed bytes.
type Context struct {
	label string
	buf   []byte
}

// New starts an empty transcript context for the named direction.
func New(label string) *Context {
	return &Context{label: label}
}

// Label returns the direction this context was opened for.
func (c *Context) Label() string { return c.label }

// Absorb appends a length-prefixed byte string to the transcript.
func (c *Context) Absorb(data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	c.buf = append(c.buf, lenBuf[:]...)
	c.buf = append(c.buf, data...)
}

// AbsorbProto marshals each message through an any.Any envelope, exactly
// as the teacher's HashProtos does, and absorbs the resulting bytes.
func (c *Context) AbsorbProto(msgs ...proto.Message) error {
	for _, m := range msgs {
		packed, err := ptypes.MarshalAny(m)
		if err != nil {
			return err
		}
		raw, err := proto.Marshal(packed)
		if err != nil {
			return err
		}
		c.Absorb(raw)
	}
	return nil
}

// AbsorbBytes is a convenience wrapper matching the Any wire shape used
// by AbsorbProto, for raw byte payloads that are not protobuf messages.
func (c *Context) AbsorbBytes(values ...[]byte) {
	for _, v := range values {
		packed := &any.Any{Value: v}
		raw, err := proto.Marshal(packed)
		if err != nil {
			// any.Any{Value: v} with no TypeUrl always marshals cleanly.
			panic(err)
		}
		c.Absorb(raw)
	}
}

// Digest returns the blake2b-256 digest of everything absorbed so far.
func (c *Context) Digest() [blake2b.Size256]byte {
	return blake2b.Sum256(c.buf)
}

// DeriveSeeds implements the Fiat-Shamir seed slicing of §9: the first 8
// bytes of a transcript digest become the chi seed, the next 8 the t
// seed, both little-endian.
func DeriveSeeds(digest []byte) (chiSeed uint64, tSeed uint64, err error) {
	if len(digest) < 16 {
		return 0, 0, ErrWrongInput
	}
	chiSeed = binary.LittleEndian.Uint64(digest[0:8])
	tSeed = binary.LittleEndian.Uint64(digest[8:16])
	return chiSeed, tSeed, nil
}

// Equal reports whether two digests match, used to accept or reject a
// client- or peer-supplied transcript hash.
func Equal(a, b [blake2b.Size256]byte) bool {
	return a == b
}
