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

// Package b2a implements per-COT bit-multiplication and batched
// boolean-to-arithmetic share conversion, consuming the trimmed ROT
// output of the cot package as the OT masks (v0, v1).
package b2a

import "errors"

// ErrWrongInput is returned for mismatched batch/width parameters.
var ErrWrongInput = errors.New("b2a: wrong input")

func modPow2(x uint64, j int) uint64 {
	if j <= 0 {
		return 0
	}
	if j >= 64 {
		return x
	}
	return x & (uint64(1)<<uint(j) - 1)
}

// BitMulSender is the OT-sender half of one bit-multiplication: given
// j <= W, sender holds (x0, v0, v1) and outputs (y0, u) with
// y0 = (-v0) mod 2^j, u = (v0+v1+x0) mod 2^j.
func BitMulSender(x0 uint8, v0, v1 uint64, j int) (y0 uint64, u uint64) {
	y0 = modPow2(0-v0, j)
	u = modPow2(v0+v1+uint64(x0), j)
	return
}

// BitMulReceiver is the OT-receiver half: receiver holds (x1, v_sel, u)
// and outputs y1 = (x1 ? (u - v_sel) : v_sel) mod 2^j.
func BitMulReceiver(x1 uint8, vSel, u uint64, j int) (y1 uint64) {
	if x1 != 0 {
		return modPow2(u-vSel, j)
	}
	return modPow2(vSel, j)
}
