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

// Package pbnano decodes nanopb field tables out of raw memory images.
//
// nanopb's code generator describes every message type with a constant
// table of field descriptors that is linked into the firmware. Each field
// is a fixed 25-byte record holding the field number, a type byte, the
// offsets and sizes of the field within the generated C struct, and, for
// submessages, a pointer to the field table of the nested message type. A
// record of all zeros ends the table.
//
// Given a dump of flash or memory positioned at the start of such a table,
// [Decode] reads it record by record and follows submessage pointers to
// expand nested tables into a tree. Pointers are absolute addresses; they
// are translated to stream offsets by subtracting a base address, which
// defaults to [DefaultBaseAddress] and may be changed with
// [WithBaseAddress].
//
// # Malformed images
//
// Images are not trusted. A pointer that leads outside the stream, back
// into a table that is already being expanded, or deeper than
// [WithMaxDepth] allows, is not followed; the problem is reported as a
// [Diagnostic] and the walk continues with the next field. Type bytes with
// undefined bits are decoded as far as possible and counted in
// [Stats.UnknownTypeBits].
//
// # Output
//
// [WriteJSON] renders the tree as a JSON array whose shape is fixed: keys,
// their order, and the "None" placeholder for unexpanded submessages are
// all relied upon by tooling that reads the output.
package pbnano
