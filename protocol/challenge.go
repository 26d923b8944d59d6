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

// combineChallenge XORs the two sides' Fiat–Shamir-derived seeds. Kept
// isolated per the "for simplicity" note carried from the source: a more
// principled design would hash the concatenation instead, but XOR is
// preserved for compatibility and confined to this one function so it
// can be swapped later without touching any caller.
func combineChallenge(local, peer uint64) uint64 {
	return local ^ peer
}
