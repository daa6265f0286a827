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
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hypoxic/pbnano"
)

const envPrefix = "PBNANO"

// Configuration keys. Each is also the name of a command-line flag.
const (
	cfgConfig   = "config"
	cfgFile     = "file"
	cfgBase     = "base"
	cfgMaxDepth = "max-depth"
	cfgOut      = "out"
	cfgFormat   = "format"
	cfgVerbose  = "verbose"
)

// Output formats.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

// config is the configuration of a single command run.
type config struct {
	File     string
	Base     uint32
	MaxDepth int
	Out      string
	Format   string
	Verbose  bool
}

// addDecoderFlags registers the flags shared by every command that decodes
// an image.
func addDecoderFlags(fs *pflag.FlagSet) {
	fs.StringP(cfgFile, "f", "", "image containing the compiled field tables")
	fs.StringP(cfgBase, "b", fmt.Sprintf("%#x", pbnano.DefaultBaseAddress),
		"address at which the image was dumped (decimal or 0x-prefixed hex)")
	fs.Int(cfgMaxDepth, pbnano.DefaultMaxDepth, "maximum nesting of submessage tables to expand")
	fs.String(cfgConfig, "", "YAML configuration file")
	fs.BoolP(cfgVerbose, "v", false, "trace every decoded field")
}

// loadConfig resolves the configuration from flags, PBNANO_* environment
// variables and the configuration file, in that order of precedence.
func loadConfig(fs *pflag.FlagSet) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if path := v.GetString(cfgConfig); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			// Not wrapped: a missing config file is not a missing image.
			return nil, fmt.Errorf("reading configuration: %v", err) //nolint:errorlint
		}
	}

	cfg := &config{
		File:    v.GetString(cfgFile),
		Out:     v.GetString(cfgOut),
		Format:  v.GetString(cfgFormat),
		Verbose: v.GetBool(cfgVerbose),
	}
	if cfg.File == "" {
		return nil, errors.New("no image given; use --file")
	}

	base, err := parseAddress(v.Get(cfgBase))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", cfgBase, err)
	}
	cfg.Base = base

	cfg.MaxDepth, err = cast.ToIntE(v.Get(cfgMaxDepth))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", cfgMaxDepth, err)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("invalid %s: %d is negative", cfgMaxDepth, cfg.MaxDepth)
	}

	switch cfg.Format {
	case "", formatJSON, formatYAML, formatTable:
	default:
		return nil, fmt.Errorf("unknown %s %q; want %s, %s or %s",
			cfgFormat, cfg.Format, formatJSON, formatYAML, formatTable)
	}

	return cfg, nil
}

// parseAddress parses a 32-bit address given as a number or as a decimal or
// 0x-prefixed hex string.
func parseAddress(v any) (uint32, error) {
	n, err := cast.ToUint64E(v)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%#x does not fit in 32 bits", n)
	}
	return uint32(n), nil
}
