/*
 * xyz.go, part of qmbatch.
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

// Package xyz reads and writes multi-record XYZ datasets: repeating blocks of an atom count
// line, an identifier line and that many coordinate lines.
package xyz

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one molecule of a multi-record XYZ file. The coordinate lines are
// not interpreted, only carried.
type Record struct {
	ID     string
	Natoms int
	Coords []string //without line terminators

	raw []string //the block exactly as read, terminators included
}

// NewRecord builds a record from its parts. The coordinate lines
// should not carry line terminators.
func NewRecord(id string, coords []string) *Record {
	c := make([]string, len(coords))
	copy(c, coords)
	return &Record{ID: id, Natoms: len(c), Coords: c}
}

// Corrupted returns an error if the atom count doesn't match the number of
// coordinate lines.
func (R *Record) Corrupted() error {
	if R.Natoms != len(R.Coords) {
		return Error{fmt.Sprintf("record %s declares %d atoms but has %d coordinate lines", R.ID, R.Natoms, len(R.Coords)), "", 0, []string{"Corrupted"}, true, ErrCorruptedRecord}
	}
	return nil
}

// Lines returns the number of lines the record takes in a file.
func (R *Record) Lines() int {
	return R.Natoms + 2
}

// WriteTo writes the record in its three-part textual form. Records that were
// read from a file are replayed verbatim.
func (R *Record) WriteTo(w io.Writer) (int64, error) {
	var n int64
	if R.raw != nil {
		for _, l := range R.raw {
			m, err := io.WriteString(w, l)
			n += int64(m)
			if err != nil {
				return n, err
			}
		}
		return n, nil
	}
	if err := R.Corrupted(); err != nil {
		return 0, err
	}
	m, err := fmt.Fprintf(w, "%d\n%s\n", R.Natoms, R.ID)
	n += int64(m)
	if err != nil {
		return n, err
	}
	for _, c := range R.Coords {
		m, err = io.WriteString(w, c+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

//terminated tells whether the record's last line ends in a newline.
func (R *Record) terminated() bool {
	if R.raw == nil {
		return true
	}
	return strings.HasSuffix(R.raw[len(R.raw)-1], "\n")
}

// Reader reads records one at a time from a line-oriented source.
type Reader struct {
	r    *bufio.Reader
	name string //only used in errors
	line int
}

// NewReader returns a Reader on r. name is used to identify the source in errors
// and can be empty.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{r: bufio.NewReader(r), name: name}
}

// Line returns the number of lines consumed so far.
func (R *Reader) Line() int {
	return R.line
}

func (R *Reader) readLine() (string, error) {
	line, err := R.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil //last line without terminator
	}
	if err != nil {
		return "", err
	}
	R.line++
	return line, nil
}

// Next returns the next record, or io.EOF when the source has been consumed.
// A count line that is not a non-negative integer, or a record cut short by the
// end of the source, gives an error matching ErrMalformedRecord.
func (R *Reader) Next() (*Record, error) {
	countline, err := R.readLine()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading %s: %w", R.name, err)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(countline))
	if err != nil || natoms < 0 {
		return nil, Error{fmt.Sprintf("invalid atom count %q", strings.TrimSpace(countline)), R.name, R.line, []string{"Next"}, true, ErrMalformedRecord}
	}
	raw := make([]string, 0, natoms+2)
	raw = append(raw, countline)
	idline, err := R.readLine()
	if err != nil {
		return nil, R.truncated(err, "", natoms, 0)
	}
	raw = append(raw, idline)
	id := strings.TrimSpace(idline)
	coords := make([]string, natoms)
	for i := 0; i < natoms; i++ {
		l, err := R.readLine()
		if err != nil {
			return nil, R.truncated(err, id, natoms, i)
		}
		raw = append(raw, l)
		coords[i] = strings.TrimRight(l, "\r\n")
	}
	return &Record{ID: id, Natoms: natoms, Coords: coords, raw: raw}, nil
}

func (R *Reader) truncated(err error, id string, natoms, got int) error {
	if err != io.EOF {
		return fmt.Errorf("reading %s: %w", R.name, err)
	}
	msg := fmt.Sprintf("truncated record %q: %d of %d coordinate lines", id, got, natoms)
	if id == "" {
		msg = "truncated record: missing identifier line"
	}
	return Error{msg, R.name, R.line, []string{"Next"}, true, ErrMalformedRecord}
}

// Read parses all the records in r.
func Read(r io.Reader) ([]*Record, error) {
	return readAll(NewReader(r, ""))
}

func readAll(R *Reader) ([]*Record, error) {
	recs := make([]*Record, 0, 64)
	for {
		rec, err := R.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// Write writes the records to w, in order. A record read from a source that
// didn't end in a newline gets one if other records follow it.
func Write(w io.Writer, recs ...*Record) error {
	for i, r := range recs {
		if _, err := r.WriteTo(w); err != nil {
			return err
		}
		if !r.terminated() && i < len(recs)-1 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
