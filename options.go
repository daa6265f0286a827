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

import "go.uber.org/zap"

const (
	// DefaultBaseAddress is the address of offset zero assumed when no
	// [WithBaseAddress] option is given.
	DefaultBaseAddress uint32 = 0x3f420110

	// DefaultMaxDepth is the nesting limit assumed when no [WithMaxDepth]
	// option is given.
	DefaultMaxDepth = 64
)

// DecodeOption is a configuration setting for [Decode].
type DecodeOption struct{ apply func(*decodeOptions) }

type decodeOptions struct {
	base     uint32
	maxDepth int
	logger   *zap.Logger
}

func newDecodeOptions(opts []DecodeOption) decodeOptions {
	o := decodeOptions{
		base:     DefaultBaseAddress,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// WithBaseAddress sets the memory address that corresponds to offset zero of
// the stream. Every submessage pointer is translated to a stream offset by
// subtracting it.
func WithBaseAddress(base uint32) DecodeOption {
	return DecodeOption{func(o *decodeOptions) { o.base = base }}
}

// WithMaxDepth sets how many levels of nested tables are expanded below the
// top-level table. Zero disables expansion entirely.
//
// Field tables come from untrusted images, so setting a large value can make
// a single decode very expensive.
func WithMaxDepth(depth int) DecodeOption {
	return DecodeOption{func(o *decodeOptions) { o.maxDepth = max(depth, 0) }}
}

// WithLogger sets a logger for the per-field trace (at debug level) and for
// diagnostics (at warn level). If logger is nil, nothing is logged.
func WithLogger(logger *zap.Logger) DecodeOption {
	return DecodeOption{func(o *decodeOptions) {
		if logger == nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}}
}
