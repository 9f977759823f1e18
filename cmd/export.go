/*
 * export.go, part of qmbatch.
 *
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rmera/qmbatch/batch"
	"github.com/rmera/qmbatch/report"
)

var exportCmd = &cobra.Command{
	Use:   "export TABLE [OUTPUT]",
	Short: "Convert a results table to Parquet",
	Long: `export writes the rows of a results table to a Parquet file, OUTPUT or
TABLE with its extension replaced by .parquet. Empty cells become nulls.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := withExt(args[0], ".parquet")
		if len(args) == 2 {
			out = args[1]
		}
		return exportTable(args[0], out)
	},
}

func exportTable(table, out string) error {
	rows, err := batch.ReadTableFile(table)
	if err != nil {
		return err
	}
	if err := report.ExportParquetFile(out, rows); err != nil {
		return err
	}
	slog.Info("Table exported", slog.String("table", table), slog.String("file", out), slog.Int("rows", len(rows)))
	return nil
}
