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

package bits

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// ExpandChaCha deterministically expands a 64-bit seed into n pseudorandom
// bits via ChaCha20 keystream, the PRNG used for the boolean-share-split
// of §4.5 (in place of the ChaCha12 of the upstream reference, which has
// no maintained Go implementation).
func ExpandChaCha(seed uint64, n int) ([]uint8, error) {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	numBytes := (n + 7) / 8
	src := make([]byte, numBytes)
	dst := make([]byte, numBytes)
	c.XORKeyStream(dst, src)
	return BytesToBits(dst)[:n], nil
}
