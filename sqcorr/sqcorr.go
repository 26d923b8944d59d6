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

// Package sqcorr implements square-correlation generation, the two-round
// A2S (arithmetic-to-square) conversion, and sacrifice-based verification
// of square correlations.
package sqcorr

import (
	"errors"
	"io"

	"github.com/getamis/fedmpc/ring"
)

// ErrWrongInput is returned for mismatched batch sizes.
var ErrWrongInput = errors.New("sqcorr: wrong input")

// Share is a party's half of a square correlation: (a+b)^2 == c+d mod 2^W
// once both parties' A and C are summed with the peer's.
type Share[W ring.Unsigned] struct {
	A ring.Ring[W]
	C ring.Ring[W]
}

// Generate produces one square correlation a^2 == c, split additively
// into an Alice share and a Bob share.
func Generate[W ring.Unsigned](rng io.Reader) (alice, bob Share[W], err error) {
	a0, err := ring.Random[W](rng)
	if err != nil {
		return Share[W]{}, Share[W]{}, err
	}
	a1, err := ring.Random[W](rng)
	if err != nil {
		return Share[W]{}, Share[W]{}, err
	}
	a := a0.Add(a1)
	c := a.Mul(a)
	c0, err := ring.Random[W](rng)
	if err != nil {
		return Share[W]{}, Share[W]{}, err
	}
	c1 := c.Sub(c0)
	return Share[W]{A: a0, C: c0}, Share[W]{A: a1, C: c1}, nil
}

// GenerateBatch produces n square correlations at once.
func GenerateBatch[W ring.Unsigned](n int, rng io.Reader) (alice, bob []Share[W], err error) {
	alice = make([]Share[W], n)
	bob = make([]Share[W], n)
	for i := 0; i < n; i++ {
		alice[i], bob[i], err = Generate[W](rng)
		if err != nil {
			return nil, nil, err
		}
	}
	return alice, bob, nil
}

// two is the ring constant 2, used by the A2S and verification formulas.
func two[W ring.Unsigned]() ring.Ring[W] { return ring.FromUint64[W](2) }

// Round1Share computes a party's d_b = x_b - a_b opening contribution.
func Round1Share[W ring.Unsigned](x, a ring.Ring[W]) ring.Ring[W] {
	return x.Sub(a)
}

// OpenD combines both parties' opening shares into the public d = x - a.
func OpenD[W ring.Unsigned](dAlice, dBob ring.Ring[W]) ring.Ring[W] {
	return dAlice.Add(dBob)
}

// Round2Alice computes Alice's A2S output share: s_alice = 2dx_a + c_a - d^2.
func Round2Alice[W ring.Unsigned](d, xAlice, cAlice ring.Ring[W]) ring.Ring[W] {
	return two[W]().Mul(d).Mul(xAlice).Add(cAlice).Sub(d.Mul(d))
}

// Round2Bob computes Bob's A2S output share: s_bob = 2dx_b + c_b.
func Round2Bob[W ring.Unsigned](d, xBob, cBob ring.Ring[W]) ring.Ring[W] {
	return two[W]().Mul(d).Mul(xBob).Add(cBob)
}

// CombineSquare sums the two A2S output shares into x^2.
func CombineSquare[W ring.Unsigned](sAlice, sBob ring.Ring[W]) ring.Ring[W] {
	return sAlice.Add(sBob)
}

// VerifyPhase1Share computes a party's opening contribution for the
// sacrifice check: d_b = t*a_b - a'_b, a_b from the correlation under
// test and a'_b from its sacrificial pair.
func VerifyPhase1Share[W ring.Unsigned](t, a, aPrime ring.Ring[W]) ring.Ring[W] {
	return t.Mul(a).Sub(aPrime)
}

// VerifyPhase2Alice computes Alice's w_a = t^2 c_a - c'_a - 2td a_a + d^2.
func VerifyPhase2Alice[W ring.Unsigned](t, d, a, c, cPrime ring.Ring[W]) ring.Ring[W] {
	t2 := t.Mul(t)
	twoTD := two[W]().Mul(t).Mul(d)
	return t2.Mul(c).Sub(cPrime).Sub(twoTD.Mul(a)).Add(d.Mul(d))
}

// VerifyPhase2Bob computes Bob's w_b = t^2 c_b - c'_b - 2td a_b.
func VerifyPhase2Bob[W ring.Unsigned](t, d, a, c, cPrime ring.Ring[W]) ring.Ring[W] {
	t2 := t.Mul(t)
	twoTD := two[W]().Mul(t).Mul(d)
	return t2.Mul(c).Sub(cPrime).Sub(twoTD.Mul(a))
}

// CombineW sums the two verification shares; honest correlations yield 0.
func CombineW[W ring.Unsigned](wAlice, wBob ring.Ring[W]) ring.Ring[W] {
	return wAlice.Add(wBob)
}

// VerifyBatch runs the sacrifice check over gsize correlations against
// gsize sacrificial ones, under a single shared challenge t, and reports
// the per-element w_sum plus how many passed (w_sum == 0).
func VerifyBatch[W ring.Unsigned](t ring.Ring[W], aliceMain, bobMain, aliceSac, bobSac []Share[W]) (wSums []ring.Ring[W], passed int, err error) {
	n := len(aliceMain)
	if len(bobMain) != n || len(aliceSac) != n || len(bobSac) != n {
		return nil, 0, ErrWrongInput
	}
	wSums = make([]ring.Ring[W], n)
	for i := 0; i < n; i++ {
		dAlice := VerifyPhase1Share(t, aliceMain[i].A, aliceSac[i].A)
		dBob := VerifyPhase1Share(t, bobMain[i].A, bobSac[i].A)
		d := OpenD(dAlice, dBob)

		wAlice := VerifyPhase2Alice(t, d, aliceMain[i].A, aliceMain[i].C, aliceSac[i].C)
		wBob := VerifyPhase2Bob(t, d, bobMain[i].A, bobMain[i].C, bobSac[i].C)
		w := CombineW(wAlice, wBob)
		wSums[i] = w
		if w.Uint64() == 0 {
			passed++
		}
	}
	return wSums, passed, nil
}
