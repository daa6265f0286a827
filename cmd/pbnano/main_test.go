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

package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hypoxic/pbnano"
	"github.com/hypoxic/pbnano/internal/ftab"
	"github.com/hypoxic/pbnano/internal/xerrors"
)

const testBase = 0x1000

// writeImage writes a two-table image whose submessage pointer only resolves
// when the base address is testBase.
func writeImage(t *testing.T) string {
	t.Helper()

	var img []byte
	img = ftab.Record{Tag: 1, Type: 0x17, Pointer: testBase + 2*ftab.Size}.Append(img)
	img = ftab.Record{}.Append(img)
	img = ftab.Record{Tag: 2, Type: 0x06}.Append(img)
	img = ftab.Record{}.Append(img)

	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, img, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeToFile(t *testing.T) {
	t.Parallel()

	img := writeImage(t)
	out := filepath.Join(t.TempDir(), "data.json")

	_, err := run(t, "decode", "-f", img, "-b", "0x1000", "-o", out)
	require.NoError(t, err)

	f, err := os.Open(img)
	require.NoError(t, err)
	defer f.Close()
	res, err := pbnano.Decode(f, pbnano.WithBaseAddress(testBase))
	require.NoError(t, err)

	want := new(bytes.Buffer)
	require.NoError(t, pbnano.WriteJSON(want, res.Fields))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(got))
	assert.Contains(t, string(got), `"tag": 2`)
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()

	img := writeImage(t)

	tests := []struct {
		format string
		want   []string
	}{
		{format: "json", want: []string{`"taghex": "0x2"`, `"submessage": "None"`}},
		{format: "yaml", want: []string{"- tag: 1", "submessage: None"}},
		{format: "table", want: []string{"POSITION", "PB_LTYPE_SUBMESSAGE", "0x32"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, "decode", "-f", img, "-b", "4096", "-o", "-", "--format", tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	t.Parallel()

	out, err := run(t, "decode", "-f", writeImage(t), "-b", "0x1000", "-o", "-", "--max-depth", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, `"tag": 2`)
}

func TestTables(t *testing.T) {
	t.Parallel()

	out, err := run(t, "tables", "-f", writeImage(t), "-b", "0x1000")
	require.NoError(t, err)
	assert.Contains(t, out, "GROUP")
	assert.Contains(t, out, "RECURSIVE")
	assert.Contains(t, out, "0x32")
	assert.NotContains(t, out, "true")
}

func TestEnvironment(t *testing.T) {
	img := writeImage(t)
	t.Setenv("PBNANO_BASE", "0x1000")

	out, err := run(t, "decode", "-f", img, "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"tag": 2`)

	// Flags win over the environment.
	out, err = run(t, "decode", "-f", img, "-o", "-", "-b", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, `"tag": 2`)
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	img := writeImage(t)
	path := filepath.Join(t.TempDir(), "pbnano.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base: 0x1000\nformat: yaml\nout: \"-\"\n"), 0o600))

	out, err := run(t, "decode", "-f", img, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "- tag: 2")
}

func TestErrors(t *testing.T) {
	t.Parallel()

	img := writeImage(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no-file", args: []string{"decode"}, want: "no image given"},
		{name: "base", args: []string{"decode", "-f", img, "-b", "nope"}, want: "invalid base"},
		{name: "wide-base", args: []string{"tables", "-f", img, "-b", "0x100000000"}, want: "does not fit in 32 bits"},
		{name: "depth", args: []string{"tables", "-f", img, "--max-depth", "-1"}, want: "invalid max-depth"},
		{name: "format", args: []string{"decode", "-f", img, "--format", "xml"}, want: `unknown format "xml"`},
		{name: "config", args: []string{"decode", "-f", img, "--config", img + ".missing"}, want: "reading configuration"},
		{name: "args", args: []string{"tables", "extra"}, want: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMissingImage(t *testing.T) {
	t.Parallel()

	_, err := run(t, "tables", "-f", filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
	_, ok := xerrors.As[*fs.PathError](err)
	assert.True(t, ok)
	assert.Equal(t, 2, exitCode(err))
}

func TestMissingConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := run(t, "tables", "-f", writeImage(t), "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading configuration")
	_, ok := xerrors.As[*fs.PathError](err)
	assert.False(t, ok)
	assert.Equal(t, 1, exitCode(err))
}

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want uint32
		err  bool
	}{
		{in: "0x3f420110", want: pbnano.DefaultBaseAddress},
		{in: "4096", want: 4096},
		{in: 7, want: 7},
		{in: "0xffffffff", want: 0xffffffff},
		{in: "0x100000000", err: true},
		{in: "-1", err: true},
		{in: "zz", err: true},
	}
	for _, tt := range tests {
		got, err := parseAddress(tt.in)
		if tt.err {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestLogger(t *testing.T) {
	t.Parallel()

	for _, verbose := range []bool{false, true} {
		log, err := newLogger(verbose)
		require.NoError(t, err)
		assert.Equal(t, verbose, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	}
}
