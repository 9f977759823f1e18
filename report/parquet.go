/*
 * parquet.go, part of qmbatch.
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

package report

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/rmera/qmbatch/batch"
)

// Record is one row of a Parquet export.
type Record struct {
	MolID    string   `parquet:"mol_id"`
	Energy   *float64 `parquet:"energy,optional"`
	CalcTime *float64 `parquet:"calc_time,optional"`
}

// ExportParquet writes rows to w as Parquet, keeping absent values as nulls.
func ExportParquet(w io.Writer, rows []batch.Row) error {
	recs := make([]Record, len(rows))
	for i, r := range rows {
		recs[i] = Record{MolID: r.MolID, Energy: r.Energy, CalcTime: r.Minutes}
	}
	pw := parquet.NewGenericWriter[Record](w)
	n, err := pw.Write(recs)
	if err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}
	if n != len(recs) {
		return fmt.Errorf("writing parquet: wrote %d of %d rows", n, len(recs))
	}
	return pw.Close()
}

// ExportParquetFile writes rows to a Parquet file at path.
func ExportParquetFile(path string, rows []batch.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportParquet(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
