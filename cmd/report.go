/*
 * report.go, part of qmbatch.
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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmera/qmbatch/batch"
	"github.com/rmera/qmbatch/report"
)

var (
	reportBins int
	reportPlot bool
)

var reportCmd = &cobra.Command{
	Use:   "report TABLE...",
	Short: "Summarize results tables",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bins := cfg.Report.Bins
		override(cmd, "bins", &bins, reportBins)
		if bins < 1 {
			return fmt.Errorf("--bins must be at least 1, got %d", bins)
		}
		for _, table := range args {
			if err := reportTable(cmd.OutOrStdout(), table, bins, reportPlot); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportBins, "bins", 0, "bins of the energy histogram")
	reportCmd.Flags().BoolVar(&reportPlot, "plot", false, "save the energy histogram as a PNG next to each table")
}

// withExt replaces the last extension of path by ext.
func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func reportTable(w io.Writer, table string, bins int, plot bool) error {
	rows, err := batch.ReadTableFile(table)
	if err != nil {
		return err
	}
	if err := report.Write(w, table, rows, bins); err != nil {
		return err
	}
	if !plot {
		return nil
	}
	png := withExt(table, ".png")
	err = report.PlotEnergies(rows, bins, filepath.Base(table), png)
	if errors.Is(err, report.ErrNoEnergies) {
		slog.Warn("Nothing to plot", slog.String("table", table))
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Energy histogram saved", slog.String("file", png))
	return nil
}
