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

// Package protocol implements the per-client phase orchestration driver
// of §4.13: receive a client's phase-1 contribution, derive the shared
// challenge, verify the COT correlation, run B2A, and run the two-round
// square-correlation verification. Each side absorbs its own boolean share
// (the sender also its delta) into a transcript before deriving its
// Fiat–Shamir seeds, and afterwards the receiver's COT challenge; the B2A
// message and the A2S and square-correlation openings are not absorbed,
// and the final digest is returned in ClientResult without being compared
// against anything.
//
// The source's compile-time ALICE/BOB party parameter becomes a runtime
// tag here (§9 "const-generic party parameter"); the per-client OT
// orientation (sender vs. receiver) is a separate Role argument chosen by
// the caller. cmd/server picks it from the client id's parity
// (clientspool.SplitByParity) together with the party tag, so Alice and
// Bob take opposite roles for each client and each server plays sender
// for one sub-pool and receiver for the other.
package protocol

// Party is the sum type §9 asks for in place of inheritance/dispatch:
// exactly two servers ever run this protocol.
type Party int

const (
	Alice Party = iota
	Bob
)

func (p Party) String() string {
	switch p {
	case Alice:
		return "alice"
	case Bob:
		return "bob"
	default:
		return "unknown"
	}
}

// Role is a single client's OT/square-correlation orientation for this
// server, independent of Party: within one run a server is Sender for
// roughly half its clients and Receiver for the other half.
type Role int

const (
	Sender Role = iota
	Receiver
)
