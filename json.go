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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoSubmessage is the value of [Node.Submessage] for fields with no
// expanded table.
const NoSubmessage = "None"

// Node is the serialized form of a [Field], as written by [WriteJSON].
//
// Tools that consume the output depend on the key names and their order.
type Node struct {
	Tag        uint32 `json:"tag"         yaml:"tag"`
	TagHex     string `json:"taghex"      yaml:"taghex"`
	Type       string `json:"type"        yaml:"type"`
	DataOffset int32  `json:"data_offset" yaml:"data_offset"`
	SizeOffset int32  `json:"size_offset" yaml:"size_offset"`
	DataSize   int32  `json:"data_size"   yaml:"data_size"`
	ArraySize  int32  `json:"array_size"  yaml:"array_size"`

	// Either [NoSubmessage] or a []Node.
	Submessage any `json:"submessage" yaml:"submessage"`
}

// Nodes converts a field tree into its serialized form. The result is never
// nil.
func Nodes(fields []*Field) []Node {
	out := make([]Node, 0, len(fields))
	for _, f := range fields {
		n := Node{
			Tag:        f.Tag,
			TagHex:     fmt.Sprintf("%#x", f.Tag),
			Type:       f.TypeName(),
			DataOffset: f.DataOffset,
			SizeOffset: f.SizeOffset,
			DataSize:   f.DataSize,
			ArraySize:  f.ArraySize,
			Submessage: NoSubmessage,
		}
		if len(f.Children) > 0 {
			n.Submessage = Nodes(f.Children)
		}
		out = append(out, n)
	}
	return out
}

// WriteJSON writes a field tree to w as an indented JSON array of [Node].
func WriteJSON(w io.Writer, fields []*Field) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(Nodes(fields))
}

// WriteYAML writes a field tree to w as a YAML sequence of [Node].
func WriteYAML(w io.Writer, fields []*Field) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Nodes(fields)); err != nil {
		return err
	}
	return enc.Close()
}

// RowHeader names the columns of [Rows].
var RowHeader = []string{
	"POSITION", "TAG", "LTYPE", "HTYPE", "ATYPE", "WIRE",
	"DATA_OFFSET", "SIZE_OFFSET", "DATA_SIZE", "ARRAY_SIZE", "TABLE",
}

// Rows flattens fields into one text row per field, in the column order of
// [RowHeader]. Tags are indented by two spaces per level of depth.
//
// Missing values are written as "-".
func Rows(fields []*Field) [][]string {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		wire := "-"
		if wt, ok := f.LType().WireType(); ok {
			wire = strconv.Itoa(int(wt))
		}
		table := "-"
		if off, ok := f.ResolvedOffset(); ok {
			table = fmt.Sprintf("%#x", off)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%#x", f.Position),
			strings.Repeat("  ", f.Depth) + strconv.FormatUint(uint64(f.Tag), 10),
			f.LType().String(),
			f.HType().String(),
			f.AType().String(),
			wire,
			strconv.Itoa(int(f.DataOffset)),
			strconv.Itoa(int(f.SizeOffset)),
			strconv.Itoa(int(f.DataSize)),
			strconv.Itoa(int(f.ArraySize)),
			table,
		})
	}
	return rows
}
