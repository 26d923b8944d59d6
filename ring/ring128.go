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

package ring

import (
	"io"
	"math/bits"

	"github.com/getamis/fedmpc/block"
)

// U128 is Z/(2^128), the one width that cannot be expressed as a native Go
// unsigned type. It reuses block.Block for storage.
type U128 struct {
	v block.Block
}

// NewU128 builds a U128 from its low/high 64-bit halves.
func NewU128(lo, hi uint64) U128 {
	return U128{v: block.New(lo, hi)}
}

// FromBlock reinterprets a Block as a U128 ring element.
func FromBlock(b block.Block) U128 { return U128{v: b} }

// Block exposes the underlying 128-bit value.
func (r U128) Block() block.Block { return r.v }

// Add is wrapping 128-bit addition.
func (r U128) Add(o U128) U128 {
	lo := r.v.Lo + o.v.Lo
	carry := uint64(0)
	if lo < r.v.Lo {
		carry = 1
	}
	hi := r.v.Hi + o.v.Hi + carry
	return U128{v: block.New(lo, hi)}
}

// Neg is wrapping 128-bit negation (two's complement).
func (r U128) Neg() U128 {
	notLo, notHi := ^r.v.Lo, ^r.v.Hi
	one := U128{v: block.New(1, 0)}
	return U128{v: block.New(notLo, notHi)}.Add(one)
}

// Sub is wrapping 128-bit subtraction.
func (r U128) Sub(o U128) U128 { return r.Add(o.Neg()) }

// Mul is wrapping 128-bit multiplication mod 2^128, via schoolbook
// combination of three 64x64 products (the aHi*bHi term is a multiple of
// 2^128 and drops out).
func (r U128) Mul(o U128) U128 {
	hiLo, lo := bits.Mul64(r.v.Lo, o.v.Lo)
	hi := hiLo + r.v.Lo*o.v.Hi + r.v.Hi*o.v.Lo
	return U128{v: block.New(lo, hi)}
}

// Xor is bitwise XOR, used for boolean shares of the same width.
func (r U128) Xor(o U128) U128 { return U128{v: r.v.Xor(o.v)} }

// Equal compares values.
func (r U128) Equal(o U128) bool { return r.v.Equal(o.v) }

// Bit returns bit i, 0-indexed LSB first.
func (r U128) Bit(i int) uint8 { return r.v.Bit(i) }

// ModuloPow2 masks off everything but the low j bits.
func (r U128) ModuloPow2(j int) U128 {
	if j >= 128 {
		return r
	}
	if j <= 0 {
		return U128{}
	}
	if j >= 64 {
		mask := uint64(1)<<uint(j-64) - 1
		return U128{v: block.New(r.v.Lo, r.v.Hi&mask)}
	}
	mask := uint64(1)<<uint(j) - 1
	return U128{v: block.New(r.v.Lo&mask, 0)}
}

// RandomU128 samples a uniform 128-bit ring element.
func RandomU128(rng io.Reader) (U128, error) {
	var buf [16]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return U128{}, err
	}
	b, err := block.FromBytes(buf[:])
	if err != nil {
		return U128{}, err
	}
	return U128{v: b}, nil
}

// ArithSharesU128 splits x into additive shares (s0, s1) with s0+s1 = x mod 2^128.
func ArithSharesU128(x U128, rng io.Reader) (U128, U128, error) {
	s0, err := RandomU128(rng)
	if err != nil {
		return U128{}, U128{}, err
	}
	s1 := x.Sub(s0)
	return s0, s1, nil
}

// FromROT128 takes the COT/ROT block directly: the whole 128 bits are used.
func FromROT128(b block.Block) U128 { return U128{v: b} }

// As128 widens a narrower ring element (W <= 64) to U128, zero-extended.
func As128[W Unsigned](r Ring[W]) U128 {
	return U128{v: block.New(r.Uint64(), 0)}
}

// Narrow truncates a U128 down to a narrower width W (W <= 64), taking the
// low W bits.
func Narrow[W Unsigned](r U128) Ring[W] {
	return FromUint64[W](r.v.Lo)
}
