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

// Package ftab decodes the fixed-size records of a nanopb field table.
//
// A field table is a run of 25-byte little-endian records, one per message
// field, terminated by a record of all zeros:
//
//	offset  size  field
//	0       4     tag
//	4       1     type
//	5       4     data_offset
//	9       4     size_offset
//	13      4     data_size
//	17      4     array_size
//	21      4     submessage table pointer
//
// Records are packed; there is no padding between the type byte and the
// words that follow it.
package ftab

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hypoxic/pbnano/internal/dbg"
	"github.com/hypoxic/pbnano/internal/debug"
)

// Size is the size of a single record, in bytes.
const Size = 4 + 1 + 4*5

// ErrTerminator is returned by [Read] when it encounters the all-zero record
// that ends a table.
var ErrTerminator = errors.New("ftab: terminator record")

// Record is a single record, exactly as stored.
type Record struct {
	Tag        uint32
	Type       uint8
	DataOffset uint32
	SizeOffset uint32
	DataSize   uint32
	ArraySize  uint32
	Pointer    uint32
}

// IsTerminator returns whether b is a terminator record.
func IsTerminator(b *[Size]byte) bool {
	return *b == [Size]byte{}
}

// Decode decodes a record from b.
//
// Returns false if b is a terminator.
func Decode(b *[Size]byte) (Record, bool) {
	if IsTerminator(b) {
		return Record{}, false
	}

	le := binary.LittleEndian
	r := Record{
		Tag:        le.Uint32(b[0:]),
		Type:       b[4],
		DataOffset: le.Uint32(b[5:]),
		SizeOffset: le.Uint32(b[9:]),
		DataSize:   le.Uint32(b[13:]),
		ArraySize:  le.Uint32(b[17:]),
		Pointer:    le.Uint32(b[21:]),
	}
	debug.Log(nil, "decode", "%v", r)
	return r, true
}

// Read reads the next record from r into buf and decodes it.
//
// Returns [io.EOF] if fewer than [Size] bytes remain, even if some were
// consumed, and [ErrTerminator] if the record ends the table. Any other
// error comes from r.
func Read(r io.Reader, buf *[Size]byte) (Record, error) {
	n, err := io.ReadFull(r, buf[:])
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		debug.Log(nil, "read", "short record: %d bytes", n)
		return Record{}, io.EOF
	case err != nil:
		return Record{}, err
	}

	rec, ok := Decode(buf)
	if !ok {
		return Record{}, ErrTerminator
	}
	return rec, nil
}

// Append appends the encoded form of r to out.
func (r Record) Append(out []byte) []byte {
	le := binary.LittleEndian
	out = le.AppendUint32(out, r.Tag)
	out = append(out, r.Type)
	out = le.AppendUint32(out, r.DataOffset)
	out = le.AppendUint32(out, r.SizeOffset)
	out = le.AppendUint32(out, r.DataSize)
	out = le.AppendUint32(out, r.ArraySize)
	out = le.AppendUint32(out, r.Pointer)
	return out
}

// Format implements [fmt.Formatter].
func (r Record) Format(s fmt.State, verb rune) {
	dbg.Dict("ftab",
		"tag", r.Tag,
		"type", dbg.Fprintf("%#02x", r.Type),
		"data", dbg.Fprintf("%#x", r.DataOffset),
		"size", dbg.Fprintf("%#x", r.SizeOffset),
		"len", r.DataSize,
		"array", r.ArraySize,
		"ptr", dbg.Fprintf("%#08x", r.Pointer),
	).Format(s, verb)
}
