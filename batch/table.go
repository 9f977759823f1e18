/*
 * table.go, part of qmbatch.
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

package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/qmbatch/xyz"
)

// Header is the first row of every results table.
var Header = []string{"mol_id", "energy", "calc_time"}

// Row is the result for one molecule. Nil fields could not be recovered.
type Row struct {
	MolID   string
	Energy  *float64 //Hartree
	Minutes *float64
}

// RowWriter receives the rows of a run, one at a time.
type RowWriter interface {
	Append(r Row) error
}

// TablePath returns the results table path for a dataset: the dataset path with
// its extension, and any compression suffix, replaced by .out.
func TablePath(dataset string) string {
	return filepath.Join(filepath.Dir(dataset), xyz.Base(dataset)+".out")
}

// Table is a results table file. Rows are flushed to the file as soon as they
// are appended.
type Table struct {
	path string
	f    *os.File
	w    *csv.Writer
}

// CreateTable creates the table at path, replacing any previous one, and
// writes the header.
func CreateTable(path string) (*Table, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating results table: %w", err)
	}
	T := &Table{path: path, f: f, w: csv.NewWriter(f)}
	if err := T.write(Header); err != nil {
		f.Close()
		return nil, err
	}
	return T, nil
}

func (T *Table) Path() string {
	return T.path
}

func (T *Table) write(fields []string) error {
	if err := T.w.Write(fields); err != nil {
		return fmt.Errorf("writing results table %s: %w", T.path, err)
	}
	T.w.Flush()
	if err := T.w.Error(); err != nil {
		return fmt.Errorf("writing results table %s: %w", T.path, err)
	}
	return nil
}

// Append writes r to the table.
func (T *Table) Append(r Row) error {
	return T.write([]string{r.MolID, FormatFloat(r.Energy), FormatFloat(r.Minutes)})
}

func (T *Table) Close() error {
	T.w.Flush()
	if err := T.w.Error(); err != nil {
		T.f.Close()
		return err
	}
	return T.f.Close()
}

// FormatFloat writes a number the way the tables have always carried them:
// shortest representation, with a ".0" for integral values and exponent
// notation only for very small or very large magnitudes. Nil gives an empty cell.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	f := *v
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if a := math.Abs(f); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseCell(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadTable reads the rows of a results table.
func ReadTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows := make([]Row, 0, 64)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 {
			continue //header
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("results table line %d: expected 3 fields, got %d", line, len(rec))
		}
		row := Row{MolID: rec[0]}
		if row.Energy, err = parseCell(rec[1]); err != nil {
			return nil, fmt.Errorf("results table line %d: energy: %w", line, err)
		}
		if row.Minutes, err = parseCell(rec[2]); err != nil {
			return nil, fmt.Errorf("results table line %d: calc_time: %w", line, err)
		}
		rows = append(rows, row)
	}
}

// ReadTableFile reads the results table at path.
func ReadTableFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}
