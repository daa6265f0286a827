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
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hypoxic/pbnano"
)

func newTablesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the field tables reachable from an image",
		Long: `List every field table reached while decoding an image, grouped by the
message types that refer to each other. Recursive groups are message types
whose expansion had to be cut short.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			log, err := newLogger(cfg.Verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := decodeFile(cfg, log)
			if err != nil {
				return err
			}
			return writeTableList(cmd.OutOrStdout(), res)
		},
	}

	addDecoderFlags(cmd.Flags())
	return cmd
}

func newTableWriter(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// writeTableList prints one row per field table, in topological order of
// their groups.
func writeTableList(w io.Writer, res *pbnano.Result) error {
	byOffset := make(map[int64]*pbnano.Table, len(res.Tables))
	for _, t := range res.Tables {
		byOffset[t.Offset] = t
	}

	t := newTableWriter(w, "GROUP", "OFFSET", "DEPTH", "FIELDS", "REFS", "RECURSIVE")
	for i, c := range res.Components() {
		for _, off := range c.Tables {
			table := byOffset[off]

			refs := make([]string, 0, len(table.Refs))
			for _, ref := range table.Refs {
				refs = append(refs, fmt.Sprintf("%#x", ref))
			}

			t.Append([]string{
				strconv.Itoa(i),
				fmt.Sprintf("%#x", table.Offset),
				strconv.Itoa(table.Depth),
				strconv.Itoa(len(table.Fields)),
				strings.Join(refs, " "),
				strconv.FormatBool(c.Recursive),
			})
		}
	}
	t.Render()

	for _, d := range res.Diagnostics {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

// writeFieldTable prints one row per field.
func writeFieldTable(w io.Writer, flat []*pbnano.Field) error {
	t := newTableWriter(w, pbnano.RowHeader...)
	t.AppendBulk(pbnano.Rows(flat))
	t.Render()
	return nil
}
