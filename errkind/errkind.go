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

// Package errkind classifies the four error kinds from spec §7 so driver
// code can apply the propagation policy (per-client vs fatal vs counted)
// without string-matching error text.
package errkind

import "errors"

// Kind is one of the four error categories the protocol distinguishes.
type Kind int

const (
	// Unknown is the zero value: treat conservatively as fatal.
	Unknown Kind = iota
	// Io covers socket and framing failures.
	Io
	// Serialization covers under-reads, bad lengths, POD-cast failures.
	Serialization
	// Verification covers COT checks, square-correlation checks, and
	// transcript-hash mismatches.
	Verification
	// ProgrammerError covers invariant violations: duplicate subscriptions,
	// length mismatches, unaligned batches. These are always fatal.
	ProgrammerError
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Serialization:
		return "serialization"
	case Verification:
		return "verification"
	case ProgrammerError:
		return "programmer_error"
	default:
		return "unknown"
	}
}

// Tagged wraps an error with its Kind.
type Tagged struct {
	kind Kind
	err  error
}

func (t *Tagged) Error() string { return t.kind.String() + ": " + t.err.Error() }
func (t *Tagged) Unwrap() error { return t.err }
func (t *Tagged) Kind() Kind    { return t.kind }

// Wrap tags err with kind. Wrapping nil returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Tagged{kind: kind, err: err}
}

// WrapIO, WrapSerialization, WrapVerification and WrapProgrammer are
// convenience constructors matching the four kinds above.
func WrapIO(err error) error            { return Wrap(Io, err) }
func WrapSerialization(err error) error { return Wrap(Serialization, err) }
func WrapVerification(err error) error  { return Wrap(Verification, err) }
func WrapProgrammer(err error) error    { return Wrap(ProgrammerError, err) }

// ClassOf extracts the Kind tagged onto err, or Unknown if untagged.
func ClassOf(err error) Kind {
	var t *Tagged
	if errors.As(err, &t) {
		return t.Kind()
	}
	return Unknown
}

// IsFatalToPeerLink reports whether an error on the Alice<->Bob link
// should abort the entire run (§7: Io on the peer link is always fatal;
// ProgrammerError is always fatal regardless of link).
func IsFatalToPeerLink(err error) bool {
	switch ClassOf(err) {
	case Io, ProgrammerError:
		return true
	default:
		return false
	}
}

// IsClientOnly reports whether an error should only mark the originating
// client as failed, leaving the rest of the run to continue (§7: Io and
// Serialization on a client link).
func IsClientOnly(err error) bool {
	switch ClassOf(err) {
	case Io, Serialization:
		return true
	default:
		return false
	}
}
