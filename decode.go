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
	"io"

	"go.uber.org/zap"

	"github.com/hypoxic/pbnano/internal/debug"
	"github.com/hypoxic/pbnano/internal/ftab"
)

// Result is the outcome of decoding a field table with [Decode].
type Result struct {
	// The fields of the top-level table, with nested tables expanded into
	// [Field.Children].
	Fields []*Field

	// Every field decoded, in stream order with each field before its
	// children. These are the same values that make up the tree.
	//
	// A table referenced by several fields is decoded once, and those
	// fields share its [Field] values as children; they appear here once.
	Flat []*Field

	// Every distinct table reached, in the order they were first visited.
	// The top-level table is first.
	Tables []*Table

	Diagnostics []*Diagnostic
	Stats       Stats
}

// Table is one field table found in the stream.
type Table struct {
	// Stream offset of the table's first record.
	Offset int64
	// Depth at which the table was first reached. This is also the
	// [Field.Depth] of its fields, wherever else they are shared.
	Depth int
	Fields []*Field
	// Resolved offsets of the tables this table's submessage fields refer
	// to, in field order, whether or not they could be expanded.
	Refs []int64
}

// Stats are counters collected over a decode.
type Stats struct {
	Records  int // Field records decoded.
	MaxDepth int // Deepest table expanded.

	// Fields whose type byte has bits with no defined meaning. Their
	// undefined parts are left out of [Field.TypeName].
	UnknownTypeBits int
	// Fields whose tag is not a legal protobuf field number.
	InvalidTags int
}

// Decode walks the field table that starts at the current position of r,
// following submessage pointers into nested tables.
//
// The top-level table ends at a terminator record or the end of the stream.
// On success, r is left just past the top-level table.
//
// Problems with individual submessage pointers are reported in
// [Result.Diagnostics]. Only errors from r itself are returned.
func Decode(r io.ReadSeeker, opts ...DecodeOption) (*Result, error) {
	d := &decoder{
		r:      r,
		opts:   newDecodeOptions(opts),
		res:    new(Result),
		tables: make(map[int64]*Table),
		active: make(map[int64]struct{}),
	}

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("pbnano: locating stream position: %w", err)
	}
	d.size, err = r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("pbnano: measuring stream: %w", err)
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("pbnano: rewinding stream: %w", err)
	}

	d.opts.logger.Debug("decoding field table",
		zap.Int64("start", start),
		zap.Int64("size", d.size),
		zap.String("base", fmt.Sprintf("%#x", d.opts.base)),
	)

	d.res.Fields, err = d.walk(start, 0)
	if err != nil {
		return nil, err
	}
	return d.res, nil
}

// decoder is the state of a single [Decode] call.
type decoder struct {
	r    io.ReadSeeker
	opts decodeOptions
	size int64

	res    *Result
	buf    [ftab.Size]byte
	tables map[int64]*Table   // Tables visited so far, by offset.
	active map[int64]struct{} // Tables on the current expansion path.
}

// walk decodes the table at offset, which r must already be positioned at.
//
// The returned slice is nil if the table has no fields.
func (d *decoder) walk(offset int64, depth int) ([]*Field, error) {
	table := &Table{Offset: offset, Depth: depth}
	d.tables[offset] = table
	d.res.Tables = append(d.res.Tables, table)

	d.active[offset] = struct{}{}
	defer delete(d.active, offset)
	d.res.Stats.MaxDepth = max(d.res.Stats.MaxDepth, depth)

	for pos := offset; ; pos += ftab.Size {
		rec, err := ftab.Read(d.r, &d.buf)
		switch {
		case err == io.EOF:
			d.log("end of stream", pos, depth)
			return table.Fields, nil
		case errors.Is(err, ftab.ErrTerminator):
			d.log("end of table", pos, depth)
			return table.Fields, nil
		case err != nil:
			return nil, fmt.Errorf("pbnano: reading record at %#x: %w", pos, err)
		}

		f := newField(rec, d.opts.base, pos, depth)
		d.record(f)
		table.Fields = append(table.Fields, f)

		if !f.IsSubmessage() {
			continue
		}
		target, ok := f.ResolvedOffset()
		if !ok {
			d.opts.logger.Debug("submessage has no table", zap.Uint32("tag", f.Tag))
			continue
		}
		table.Refs = append(table.Refs, target)
		if err := d.expand(f, target, pos+ftab.Size); err != nil {
			return nil, err
		}
	}
}

// expand expands the table at target into f's children, then returns the
// stream to ret, which is where the caller's table continues.
//
// A table that has already been decoded is not read again: f shares its
// fields.
func (d *decoder) expand(f *Field, target, ret int64) error {
	debug.Assert(f.IsSubmessage(), "expanding field %d of type %#02x", f.Tag, f.Type)

	switch _, cycle := d.active[target]; {
	case target < 0 || target > d.size:
		d.diagnose(errCodeSeekMismatch, f, target)
		return nil
	case cycle:
		d.diagnose(errCodeCycle, f, target)
		return nil
	case f.Depth+1 > d.opts.maxDepth:
		d.diagnose(errCodeDepthExceeded, f, target)
		return nil
	}

	if table, ok := d.tables[target]; ok {
		d.opts.logger.Debug("reusing submessage table",
			zap.Uint32("tag", f.Tag),
			zap.Int64("offset", target),
		)
		f.Children = table.Fields
		return nil
	}

	d.opts.logger.Debug("expanding submessage",
		zap.Uint32("tag", f.Tag),
		zap.Int64("offset", target),
	)

	got, err := d.r.Seek(target, io.SeekStart)
	if err == nil && got == target {
		children, err := d.walk(target, f.Depth+1)
		if err != nil {
			return err
		}
		f.Children = children
	} else {
		d.diagnose(errCodeSeekMismatch, f, target)
	}

	if _, err := d.r.Seek(ret, io.SeekStart); err != nil {
		return fmt.Errorf("pbnano: restoring stream position %#x: %w", ret, err)
	}
	return nil
}

// record accounts for a freshly decoded field.
func (d *decoder) record(f *Field) {
	d.res.Flat = append(d.res.Flat, f)
	d.res.Stats.Records++
	if !f.Recognized() {
		d.res.Stats.UnknownTypeBits++
	}
	if !f.ValidTag() {
		d.res.Stats.InvalidTags++
	}

	debug.Log([]any{"depth %d", f.Depth}, "field", "%v", f)
	if ce := d.opts.logger.Check(zap.DebugLevel, "field"); ce != nil {
		fields := []zap.Field{
			zap.String("position", fmt.Sprintf("%#x", f.Position)),
			zap.Int("depth", f.Depth),
			zap.Uint32("tag", f.Tag),
			zap.String("type", fmt.Sprintf("%#02x", f.Type)),
			zap.String("attributes", f.TypeName()),
			zap.Int32("data_offset", f.DataOffset),
			zap.Int32("size_offset", f.SizeOffset),
			zap.Int32("data_size", f.DataSize),
			zap.Int32("array_size", f.ArraySize),
		}
		if off, ok := f.ResolvedOffset(); ok {
			fields = append(fields, zap.String("offset", fmt.Sprintf("%#x", off)))
		}
		ce.Write(fields...)
	}
}

// diagnose records a non-fatal problem with expanding f.
func (d *decoder) diagnose(code errCode, f *Field, target int64) {
	diag := &Diagnostic{code: code, Field: f, Offset: target}
	d.res.Diagnostics = append(d.res.Diagnostics, diag)
	d.opts.logger.Warn("skipping submessage expansion",
		zap.Uint32("tag", f.Tag),
		zap.Int64("offset", target),
		zap.Error(diag.Unwrap()),
	)
}

func (d *decoder) log(msg string, pos int64, depth int) {
	d.opts.logger.Debug(msg, zap.Int64("position", pos), zap.Int("depth", depth))
}
