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

// Package ring implements the unsigned-integer ring abstraction Z/(2^W)
// used throughout the protocol for arithmetic shares, with wrapping
// arithmetic, bit decomposition and arithmetic-share splitting. Widths
// 8/16/32/64 are modeled as a generic Ring[W]; width 128 is modeled
// separately as U128 on top of block.Block, since Go has no native
// 128-bit unsigned integer.
package ring

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"unsafe"

	"github.com/getamis/fedmpc/block"
)

// ErrWrongInput is returned for malformed inputs (wrong byte length, etc).
var ErrWrongInput = errors.New("ring: wrong input")

// Unsigned is the set of widths a generic Ring[W] may be instantiated over.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Ring is an element of Z/(2^W), W the bit width of the underlying type.
type Ring[W Unsigned] struct {
	v W
}

// New wraps a raw value of width W. Values are always already reduced
// mod 2^W because the Go type W only holds that many bits.
func New[W Unsigned](v W) Ring[W] {
	return Ring[W]{v: v}
}

// Width returns the bit width of W.
func Width[W Unsigned]() int {
	var w W
	return int(unsafe.Sizeof(w)) * 8
}

// Uint64 widens the value to uint64 (zero-extended, exact since W <= 64).
func (r Ring[W]) Uint64() uint64 { return uint64(r.v) }

// Raw returns the underlying typed value.
func (r Ring[W]) Raw() W { return r.v }

// FromUint64 reduces x mod 2^W by truncating to W's bit width.
func FromUint64[W Unsigned](x uint64) Ring[W] {
	return Ring[W]{v: W(x)}
}

// Add is wrapping addition mod 2^W.
func (r Ring[W]) Add(o Ring[W]) Ring[W] { return Ring[W]{v: r.v + o.v} }

// Sub is wrapping subtraction mod 2^W.
func (r Ring[W]) Sub(o Ring[W]) Ring[W] { return Ring[W]{v: r.v - o.v} }

// Mul is wrapping multiplication mod 2^W.
func (r Ring[W]) Mul(o Ring[W]) Ring[W] { return Ring[W]{v: r.v * o.v} }

// Neg is wrapping negation mod 2^W.
func (r Ring[W]) Neg() Ring[W] { return Ring[W]{v: 0 - r.v} }

// Xor is bitwise XOR, used for boolean shares of the same width.
func (r Ring[W]) Xor(o Ring[W]) Ring[W] { return Ring[W]{v: r.v ^ o.v} }

// Equal compares values.
func (r Ring[W]) Equal(o Ring[W]) bool { return r.v == o.v }

// Bit returns bit i, 0-indexed from the least significant bit (BitsLE).
func (r Ring[W]) Bit(i int) uint8 {
	return uint8(r.Uint64()>>uint(i)) & 1
}

// ModuloPow2 masks off everything but the low j bits.
func (r Ring[W]) ModuloPow2(j int) Ring[W] {
	width := Width[W]()
	if j >= width {
		return r
	}
	if j <= 0 {
		return Ring[W]{}
	}
	mask := uint64(1)<<uint(j) - 1
	return FromUint64[W](r.Uint64() & mask)
}

// Random samples a uniform element of the ring.
func Random[W Unsigned](rng io.Reader) (Ring[W], error) {
	var buf [8]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Ring[W]{}, err
	}
	return FromUint64[W](binary.LittleEndian.Uint64(buf[:])), nil
}

// RandomRange samples a uniform element in [0, bound) by rejection sampling.
func RandomRange[W Unsigned](rng io.Reader, bound uint64) (Ring[W], error) {
	if bound == 0 {
		return Ring[W]{}, ErrWrongInput
	}
	for {
		x, err := Random[W](rng)
		if err != nil {
			return Ring[W]{}, err
		}
		if x.Uint64() < bound {
			return x, nil
		}
	}
}

// ArithShares splits x into additive shares (s0, s1) with s0+s1 = x mod 2^W.
func ArithShares[W Unsigned](x Ring[W], rng io.Reader) (Ring[W], Ring[W], error) {
	s0, err := Random[W](rng)
	if err != nil {
		return Ring[W]{}, Ring[W]{}, err
	}
	s1 := x.Sub(s0)
	return s0, s1, nil
}

// FromROT extracts the low W bits of a COT/ROT block.
func FromROT[W Unsigned](b block.Block) Ring[W] {
	return FromUint64[W](b.Lo)
}

// As converts r to width W2: truncating if W2 is narrower, zero-extending
// if W2 is wider. Both directions reduce to the same uint64 round-trip
// because every width this package supports natively fits in 64 bits.
func As[W2 Unsigned, W1 Unsigned](r Ring[W1]) Ring[W2] {
	return FromUint64[W2](r.Uint64())
}

// CryptoRandReader is crypto/rand's uniform random source, exposed for
// passing to Random/RandomRange; those functions always read from the
// rng they are given and never fall back to it.
var CryptoRandReader io.Reader = rand.Reader

// BoundedEncode implements the length-independent interval encoding of
// spec §4.4: given x < bound, find the highest bit position p where x is 0
// and bound is 1; emit y = x & ((1<<p)-1) and a one-hot indicator s of
// which interval of bound the value lies in.
func BoundedEncode(x, bound uint64) (y uint64, s uint64, err error) {
	if bound == 0 || x >= bound {
		return 0, 0, ErrWrongInput
	}
	p := -1
	for i := 63; i >= 0; i-- {
		xb := (x >> uint(i)) & 1
		bb := (bound >> uint(i)) & 1
		if xb == 0 && bb == 1 {
			p = i
			break
		}
	}
	if p < 0 {
		return 0, 0, ErrWrongInput
	}
	mask := uint64(1)<<uint(p) - 1
	y = x & mask
	upperBound := bound &^ mask
	popcount := popcountUint64(upperBound)
	if popcount == 0 {
		return 0, 0, ErrWrongInput
	}
	s = uint64(1) << uint(popcount-1)
	return y, s, nil
}

func popcountUint64(x uint64) int {
	count := 0
	for x != 0 {
		count++
		x &= x - 1
	}
	return count
}
