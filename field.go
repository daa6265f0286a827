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
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hypoxic/pbnano/internal/dbg"
	"github.com/hypoxic/pbnano/internal/ftab"
)

// RecordSize is the size of one field table record, in bytes.
const RecordSize = ftab.Size

// Field is a decoded field descriptor: one record of a field table.
type Field struct {
	Tag  uint32 // The field number.
	Type uint8  // The raw type byte. See [Field.LType] and friends.

	// Offsets and sizes into the generated C struct. These are stored
	// unsigned but are signed quantities; SizeOffset in particular is
	// usually negative.
	DataOffset int32
	SizeOffset int32
	DataSize   int32
	ArraySize  int32

	// The address of the field table for this field's message type, as
	// stored in the image. Zero if there is none.
	Pointer uint32

	// Stream offset of the record this field was decoded from.
	Position int64
	// Nesting depth of the table this field belongs to, as first reached;
	// zero for the top-level table.
	Depth int

	// The fields of the nested table, for submessage fields whose table was
	// expanded. Nil otherwise, including when the nested table is empty.
	//
	// Fields whose pointers name the same table share one Children slice.
	Children []*Field

	resolved    int64
	hasResolved bool
}

// ParseField decodes a single record from the start of b, translating its
// pointer using base as the address of offset zero.
//
// Returns [ErrEndOfStream] if b is shorter than [RecordSize] and
// [ErrTerminator] if the record is all zeros.
func ParseField(b []byte, base uint32) (*Field, error) {
	if len(b) < RecordSize {
		return nil, ErrEndOfStream
	}
	rec, ok := ftab.Decode((*[ftab.Size]byte)(b[:ftab.Size]))
	if !ok {
		return nil, ErrTerminator
	}
	return newField(rec, base, 0, 0), nil
}

// newField builds a field out of a raw record.
func newField(rec ftab.Record, base uint32, pos int64, depth int) *Field {
	f := &Field{
		Tag:        rec.Tag,
		Type:       rec.Type,
		DataOffset: int32(rec.DataOffset),
		SizeOffset: int32(rec.SizeOffset),
		DataSize:   int32(rec.DataSize),
		ArraySize:  int32(rec.ArraySize),
		Pointer:    rec.Pointer,
		Position:   pos,
		Depth:      depth,
	}
	if rec.Pointer != 0 {
		f.resolved = int64(rec.Pointer) - int64(base)
		f.hasResolved = true
	}
	return f
}

// LType returns this field's low-type.
func (f *Field) LType() LType { return LType(f.Type & LTypeMask) }

// HType returns this field's requirement.
func (f *Field) HType() HType { return HType(f.Type & HTypeMask) }

// AType returns this field's allocation type.
func (f *Field) AType() AType { return AType(f.Type & ATypeMask) }

// IsSubmessage returns whether this field's value is a nested message.
func (f *Field) IsSubmessage() bool { return f.LType() == LTypeSubmessage }

// ResolvedOffset returns the stream offset of the table that [Field.Pointer]
// refers to. Returns false if the pointer is null.
//
// The offset may be negative or past the end of the stream if the pointer
// does not point into the image.
func (f *Field) ResolvedOffset() (int64, bool) {
	return f.resolved, f.hasResolved
}

// Recognized returns whether every bit of this field's type byte has a
// defined meaning.
func (f *Field) Recognized() bool {
	_, lok := f.LType().Name()
	_, aok := f.AType().Name()
	return lok && aok
}

// ValidTag returns whether this field's tag is a legal protobuf field
// number. Numbers reserved for the protobuf implementation are not.
func (f *Field) ValidTag() bool {
	if f.Tag > uint32(protowire.MaxValidNumber) {
		return false
	}
	n := protowire.Number(f.Tag)
	return n.IsValid() && (n < protowire.FirstReservedNumber || n > protowire.LastReservedNumber)
}

// TypeName returns the names of this field's low-type and requirement,
// joined with " | ". Names for undefined bit patterns are left out.
func (f *Field) TypeName() string {
	names := make([]string, 0, 2)
	if name, ok := f.LType().Name(); ok {
		names = append(names, name)
	}
	if name, ok := f.HType().Name(); ok {
		names = append(names, name)
	}
	return strings.Join(names, " | ")
}

// Format implements [fmt.Formatter].
func (f *Field) Format(s fmt.State, verb rune) {
	var offset any
	if off, ok := f.ResolvedOffset(); ok {
		offset = dbg.Fprintf("%#x", off)
	}
	var children any
	if f.Children != nil {
		children = len(f.Children)
	}

	dbg.Dict(
		dbg.Fprintf("%#x", f.Position),
		"tag", f.Tag,
		"type", dbg.Fprintf("%#02x(%s)", f.Type, f.TypeName()),
		"data", f.DataOffset,
		"size", f.SizeOffset,
		"len", f.DataSize,
		"array", f.ArraySize,
		"offset", offset,
		"children", children,
	).Format(s, verb)
}
