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

	"google.golang.org/protobuf/encoding/protowire"
)

// Masks over a field's raw type byte.
const (
	LTypeMask = 0x0f
	HTypeMask = 0x30
	ATypeMask = 0xc0
)

// LType is a field's low-type: the primitive representation of its value.
type LType uint8

const (
	LTypeVarint           LType = 0x00 // int32, int64, enum, bool
	LTypeUvarint          LType = 0x01 // uint32, uint64
	LTypeSvarint          LType = 0x02 // sint32, sint64
	LTypeFixed32          LType = 0x03 // fixed32, sfixed32, float
	LTypeFixed64          LType = 0x04 // fixed64, sfixed64, double
	LTypeBytes            LType = 0x05
	LTypeString           LType = 0x06
	LTypeSubmessage       LType = 0x07
	LTypeExtension        LType = 0x08
	LTypeFixedLengthBytes LType = 0x09

	ltypeCount = 0x0a
)

var ltypeNames = [ltypeCount]string{
	LTypeVarint:           "PB_LTYPE_VARINT",
	LTypeUvarint:          "PB_LTYPE_UVARINT",
	LTypeSvarint:          "PB_LTYPE_SVARINT",
	LTypeFixed32:          "PB_LTYPE_FIXED32",
	LTypeFixed64:          "PB_LTYPE_FIXED64",
	LTypeBytes:            "PB_LTYPE_BYTES",
	LTypeString:           "PB_LTYPE_STRING",
	LTypeSubmessage:       "PB_LTYPE_SUBMESSAGE",
	LTypeExtension:        "PB_LTYPE_EXTENSION",
	LTypeFixedLengthBytes: "PB_LTYPE_FIXED_LENGTH_BYTES",
}

// Name returns the nanopb name for this low-type, such as PB_LTYPE_STRING.
//
// Returns false for the values nanopb leaves undefined.
func (t LType) Name() (string, bool) {
	if t >= ltypeCount {
		return "", false
	}
	return ltypeNames[t], true
}

// String implements [fmt.Stringer].
func (t LType) String() string {
	if name, ok := t.Name(); ok {
		return name
	}
	return fmt.Sprintf("PB_LTYPE(%#02x)", uint8(t))
}

// WireType returns the protobuf wire type a field of this low-type is
// encoded with.
//
// Extensions have no wire type of their own.
func (t LType) WireType() (protowire.Type, bool) {
	switch t {
	case LTypeVarint, LTypeUvarint, LTypeSvarint:
		return protowire.VarintType, true
	case LTypeFixed32:
		return protowire.Fixed32Type, true
	case LTypeFixed64:
		return protowire.Fixed64Type, true
	case LTypeBytes, LTypeString, LTypeSubmessage, LTypeFixedLengthBytes:
		return protowire.BytesType, true
	default:
		return 0, false
	}
}

// HType is a field's requirement: how many values it may hold.
type HType uint8

const (
	HTypeRequired HType = 0x00
	HTypeOptional HType = 0x10
	HTypeRepeated HType = 0x20
	HTypeOneof    HType = 0x30
)

// Name returns the nanopb name for this requirement, such as
// PB_HTYPE_REPEATED.
func (t HType) Name() (string, bool) {
	switch t {
	case HTypeRequired:
		return "PB_HTYPE_REQUIRED", true
	case HTypeOptional:
		return "PB_HTYPE_OPTIONAL", true
	case HTypeRepeated:
		return "PB_HTYPE_REPEATED", true
	case HTypeOneof:
		return "PB_HTYPE_ONEOF", true
	default:
		return "", false
	}
}

// String implements [fmt.Stringer].
func (t HType) String() string {
	if name, ok := t.Name(); ok {
		return name
	}
	return fmt.Sprintf("PB_HTYPE(%#02x)", uint8(t))
}

// AType is a field's allocation type: where nanopb keeps its value.
type AType uint8

const (
	ATypeStatic   AType = 0x00
	ATypeCallback AType = 0x40
	ATypePointer  AType = 0x80
)

// Name returns the nanopb name for this allocation type, such as
// PB_ATYPE_STATIC. The pattern 0xc0 is undefined.
func (t AType) Name() (string, bool) {
	switch t {
	case ATypeStatic:
		return "PB_ATYPE_STATIC", true
	case ATypeCallback:
		return "PB_ATYPE_CALLBACK", true
	case ATypePointer:
		return "PB_ATYPE_POINTER", true
	default:
		return "", false
	}
}

// String implements [fmt.Stringer].
func (t AType) String() string {
	if name, ok := t.Name(); ok {
		return name
	}
	return fmt.Sprintf("PB_ATYPE(%#02x)", uint8(t))
}
