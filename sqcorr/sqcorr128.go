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

package sqcorr

import (
	"io"

	"github.com/getamis/fedmpc/ring"
)

// Share128 mirrors Share but over ring.U128, the one width with no native
// Go unsigned type.
type Share128 struct {
	A ring.U128
	C ring.U128
}

// Generate128 is Generate specialized to U128.
func Generate128(rng io.Reader) (alice, bob Share128, err error) {
	a0, err := ring.RandomU128(rng)
	if err != nil {
		return Share128{}, Share128{}, err
	}
	a1, err := ring.RandomU128(rng)
	if err != nil {
		return Share128{}, Share128{}, err
	}
	a := a0.Add(a1)
	c := a.Mul(a)
	c0, err := ring.RandomU128(rng)
	if err != nil {
		return Share128{}, Share128{}, err
	}
	c1 := c.Sub(c0)
	return Share128{A: a0, C: c0}, Share128{A: a1, C: c1}, nil
}

// GenerateBatch128 produces n square correlations in ring 2^128.
func GenerateBatch128(n int, rng io.Reader) (alice, bob []Share128, err error) {
	alice = make([]Share128, n)
	bob = make([]Share128, n)
	for i := 0; i < n; i++ {
		alice[i], bob[i], err = Generate128(rng)
		if err != nil {
			return nil, nil, err
		}
	}
	return alice, bob, nil
}

var two128 = ring.NewU128(2, 0)

func verifyPhase1Share128(t, a, aPrime ring.U128) ring.U128 {
	return t.Mul(a).Sub(aPrime)
}

func verifyPhase2Alice128(t, d, a, c, cPrime ring.U128) ring.U128 {
	t2 := t.Mul(t)
	twoTD := two128.Mul(t).Mul(d)
	return t2.Mul(c).Sub(cPrime).Sub(twoTD.Mul(a)).Add(d.Mul(d))
}

func verifyPhase2Bob128(t, d, a, c, cPrime ring.U128) ring.U128 {
	t2 := t.Mul(t)
	twoTD := two128.Mul(t).Mul(d)
	return t2.Mul(c).Sub(cPrime).Sub(twoTD.Mul(a))
}

// VerifyBatch128 is VerifyBatch specialized to U128, used by the ring
// 2^128 square-correlation check.
func VerifyBatch128(t ring.U128, aliceMain, bobMain, aliceSac, bobSac []Share128) (wSums []ring.U128, passed int, err error) {
	n := len(aliceMain)
	if len(bobMain) != n || len(aliceSac) != n || len(bobSac) != n {
		return nil, 0, ErrWrongInput
	}
	wSums = make([]ring.U128, n)
	zero := ring.U128{}
	for i := 0; i < n; i++ {
		dAlice := verifyPhase1Share128(t, aliceMain[i].A, aliceSac[i].A)
		dBob := verifyPhase1Share128(t, bobMain[i].A, bobSac[i].A)
		d := dAlice.Add(dBob)

		wAlice := verifyPhase2Alice128(t, d, aliceMain[i].A, aliceMain[i].C, aliceSac[i].C)
		wBob := verifyPhase2Bob128(t, d, bobMain[i].A, bobMain[i].C, bobSac[i].C)
		w := wAlice.Add(wBob)
		wSums[i] = w
		if w.Equal(zero) {
			passed++
		}
	}
	return wSums, passed, nil
}
