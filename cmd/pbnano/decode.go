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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hypoxic/pbnano"
)

const defaultOut = "data.json"

func newDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a field table and write it out",
		Long: `Decode the field table at the start of an image, expanding nested message
types, and write the resulting tree to a file (data.json by default).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runDecode(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	addDecoderFlags(fs)
	fs.StringP(cfgOut, "o", defaultOut, `output file, or "-" for stdout`)
	fs.String(cfgFormat, formatJSON, "output format: json, yaml or table")
	return cmd
}

func runDecode(cmd *cobra.Command, cfg *config) error {
	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	res, err := decodeFile(cfg, log)
	if err != nil {
		return err
	}

	if cfg.Out == "-" {
		err = write(cmd.OutOrStdout(), cfg.Format, res)
	} else {
		err = writeFile(cfg.Out, cfg.Format, res)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Out, err)
	}

	log.Info("decoded field tables",
		zap.String("out", cfg.Out),
		zap.Int("fields", len(res.Flat)),
		zap.Int("tables", len(res.Tables)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Int("unknown_type_bits", res.Stats.UnknownTypeBits),
		zap.Int("invalid_tags", res.Stats.InvalidTags),
	)
	return nil
}

// decodeFile opens and decodes the image named by cfg.
func decodeFile(cfg *config, log *zap.Logger) (*pbnano.Result, error) {
	f, err := os.Open(cfg.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	log.Info("unpacking",
		zap.String("file", cfg.File),
		zap.String("size", fmt.Sprintf("%#x", info.Size())),
		zap.String("base", fmt.Sprintf("%#x", cfg.Base)),
	)

	return pbnano.Decode(f,
		pbnano.WithBaseAddress(cfg.Base),
		pbnano.WithMaxDepth(cfg.MaxDepth),
		pbnano.WithLogger(log),
	)
}

func writeFile(path, format string, res *pbnano.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, format, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func write(w io.Writer, format string, res *pbnano.Result) error {
	switch format {
	case formatYAML:
		return pbnano.WriteYAML(w, res.Fields)
	case formatTable:
		return writeFieldTable(w, res.Flat)
	default:
		return pbnano.WriteJSON(w, res.Fields)
	}
}
