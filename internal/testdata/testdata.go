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

// Package testdata contains the corpus of field table images used to test
// the decoder, and the harness for running it.
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hypoxic/pbnano"
	"github.com/hypoxic/pbnano/internal/debug"
)

//go:embed *.yaml
var corpus embed.FS

// TestCase is a single image from the corpus, along with what decoding it
// should produce.
type TestCase struct {
	Name string `yaml:"-"`

	// Decoder options. Defaults apply when unset.
	Base     *uint32 `yaml:"base"`
	MaxDepth *int    `yaml:"max_depth"`

	// Two ways to write the image: hex and protoscope. Every one of them is
	// decoded and checked against Want.
	Hex        []string `yaml:"hex"`
	Protoscope []string `yaml:"protoscope"`

	Want struct {
		JSON            string   `yaml:"json"`
		Flat            int      `yaml:"flat"`
		Tables          int      `yaml:"tables"`
		Recursive       int      `yaml:"recursive"`
		Cursor          *int64   `yaml:"cursor"`
		Diagnostics     []string `yaml:"diagnostics"`
		UnknownTypeBits int      `yaml:"unknown_type_bits"`
		InvalidTags     int      `yaml:"invalid_tags"`
	} `yaml:"want"`

	Specimens [][]byte `yaml:"-"`
}

// RunAll runs f on every test case in the corpus.
func RunAll(t *testing.T, f func(*testing.T, *TestCase)) {
	t.Helper()

	err := fs.WalkDir(corpus, ".", func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading test %q", p)
		if d.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}

		t.Run(strings.TrimSuffix(p, ".yaml"), func(t *testing.T) {
			t.Parallel()

			data, err := fs.ReadFile(corpus, p)
			require.NoError(t, err, "loading test %q", p)
			f(t, parseTestCase(t, p, data))
		})
		return nil
	})
	require.NoError(t, err)
}

// Options returns the decoder options this test case asks for.
func (test *TestCase) Options() []pbnano.DecodeOption {
	var opts []pbnano.DecodeOption
	if test.Base != nil {
		opts = append(opts, pbnano.WithBaseAddress(*test.Base))
	}
	if test.MaxDepth != nil {
		opts = append(opts, pbnano.WithMaxDepth(*test.MaxDepth))
	}
	return opts
}

// Run decodes every specimen of this test case and checks the result.
func (test *TestCase) Run(t *testing.T, verbose bool) {
	t.Helper()

	run := func(t *testing.T, specimen []byte) {
		t.Helper()
		defer debug.WithSink(t)()

		r := bytes.NewReader(specimen)
		res, err := pbnano.Decode(r, test.Options()...)
		require.NoError(t, err)

		out := new(strings.Builder)
		require.NoError(t, pbnano.WriteJSON(out, res.Fields))
		if verbose {
			t.Logf("output: %s", out)
		}
		assert.JSONEq(t, test.Want.JSON, out.String())

		assert.Len(t, res.Flat, test.Want.Flat, "flat fields")
		assert.Len(t, res.Tables, test.Want.Tables, "tables")
		assert.Equal(t, test.Want.UnknownTypeBits, res.Stats.UnknownTypeBits, "unknown type bits")
		assert.Equal(t, test.Want.InvalidTags, res.Stats.InvalidTags, "invalid tags")

		var recursive int
		for _, c := range res.Components() {
			if c.Recursive {
				recursive++
			}
		}
		assert.Equal(t, test.Want.Recursive, recursive, "recursive components")

		diags := []string{}
		for _, d := range res.Diagnostics {
			if verbose {
				t.Logf("diagnostic: %v", d)
			}
			diags = append(diags, d.Unwrap().Error())
		}
		if test.Want.Diagnostics == nil {
			test.Want.Diagnostics = []string{}
		}
		assert.Equal(t, test.Want.Diagnostics, diags, "diagnostics")

		if test.Want.Cursor != nil {
			pos, err := r.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, *test.Want.Cursor, pos, "cursor")
		}
	}

	if len(test.Specimens) == 1 {
		run(t, test.Specimens[0])
		return
	}

	for _, specimen := range test.Specimens {
		t.Run("", func(t *testing.T) {
			t.Parallel()
			run(t, specimen)
		})
	}
}

// parseTestCase parses a single test case from the given data.
//
// This will call t.FailNow() if loading fails.
func parseTestCase(t testing.TB, p string, file []byte) *TestCase {
	t.Helper()

	require.True(t, bytes.HasSuffix(file, []byte("\n")), "missing trailing newline in %q", p)

	test := new(TestCase)
	dec := yaml.NewDecoder(bytes.NewReader(file))
	dec.KnownFields(true)
	require.NoError(t, dec.Decode(test), "loading test %q", p)

	test.Name = strings.TrimSuffix(p, ".yaml")

	for _, raw := range test.Hex {
		r := strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")
		b, err := hex.DecodeString(r.Replace(raw))
		require.NoError(t, err, "loading test %q", p)

		test.Specimens = append(test.Specimens, b)
	}

	for _, raw := range test.Protoscope {
		s := protoscope.NewScanner(raw)
		b, err := s.Exec()
		require.NoError(t, err, "loading test %q", p)

		test.Specimens = append(test.Specimens, b)
	}

	require.NotEmpty(t, test.Specimens, "test %q has no specimens", p)
	return test
}
