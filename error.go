// Copyright 2025 The pbnano Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pbnano

import (
	"errors"
	"fmt"
)

const (
	errCodeOk errCode = iota
	errCodeEndOfStream
	errCodeTerminator
	errCodeSeekMismatch
	errCodeCycle
	errCodeDepthExceeded
	errCodeMalformedRecord
)

type errCode int

var errs = [...]error{
	errCodeOk:              nil,
	errCodeEndOfStream:     errors.New("end of stream"),
	errCodeTerminator:      errors.New("terminator record"),
	errCodeSeekMismatch:    errors.New("seek mismatch"),
	errCodeCycle:           errors.New("submessage table is its own ancestor"),
	errCodeDepthExceeded:   errors.New("maximum table depth exceeded"),
	errCodeMalformedRecord: errors.New("malformed record"),
}

var (
	// ErrEndOfStream is returned by [ParseField] when it is given fewer bytes
	// than a whole record. While walking, it ends a table normally.
	ErrEndOfStream = errs[errCodeEndOfStream]

	// ErrTerminator is returned by [ParseField] for the all-zero record that
	// ends a table.
	ErrTerminator = errs[errCodeTerminator]

	// ErrSeekMismatch is the cause of a [Diagnostic] for a submessage whose
	// table does not lie within the stream.
	ErrSeekMismatch = errs[errCodeSeekMismatch]

	// ErrCycle is the cause of a [Diagnostic] for a submessage that refers
	// back to a table currently being expanded.
	ErrCycle = errs[errCodeCycle]

	// ErrDepthExceeded is the cause of a [Diagnostic] for a submessage that
	// would nest tables more deeply than allowed by [WithMaxDepth].
	ErrDepthExceeded = errs[errCodeDepthExceeded]

	// ErrMalformedRecord is reserved for rejecting records with undefined
	// type bits. Such records currently decode, and are only counted in
	// [Stats.UnknownTypeBits].
	ErrMalformedRecord = errs[errCodeMalformedRecord]
)

// Diagnostic is a non-fatal problem found while walking a field table. The
// affected field is left unexpanded and the walk continues.
type Diagnostic struct {
	code errCode

	// The field whose table could not be expanded.
	Field *Field
	// The offset that expansion was attempted at.
	Offset int64
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (d *Diagnostic) Unwrap() error {
	return errs[d.code]
}

// Error implements [error].
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("pbnano: field %d at %#x: table at offset %d/%#x: %v",
		d.Field.Tag, d.Field.Position, d.Offset, d.Offset, d.Unwrap())
}
