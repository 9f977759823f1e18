/*
 * errors.go, part of qmbatch.
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

package xyz

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched, through errors.Is, by every framing error
// returned while reading.
var ErrMalformedRecord = errors.New("malformed record")

// ErrCorruptedRecord is matched by the error of a record whose atom count and
// coordinate lines disagree.
var ErrCorruptedRecord = errors.New("corrupted record")

// Error is the error type for the xyz package.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	line     int    //last line read, 1-based, 0 if unknown.
	deco     []string
	critical bool
	kind     error //ErrMalformedRecord or ErrCorruptedRecord
}

func (err Error) Error() string {
	switch {
	case err.filename != "" && err.line > 0:
		return fmt.Sprintf("xyz file %s line %d: %s", err.filename, err.line, err.message)
	case err.line > 0:
		return fmt.Sprintf("xyz line %d: %s", err.line, err.message)
	case err.filename != "":
		return fmt.Sprintf("xyz file %s: %s", err.filename, err.message)
	}
	return "xyz: " + err.message
}

// Decorate adds deco to the list of callers the error has gone through,
// and returns the list. An empty deco only returns the list.
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// Trace returns the callers the error has gone through, innermost first.
func (err Error) Trace() []string { return err.deco }

func (err Error) Line() int { return err.line }

func (err Error) Critical() bool { return err.critical }

func (err Error) Is(target error) bool { return err.kind != nil && target == err.kind }
