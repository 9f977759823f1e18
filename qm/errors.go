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

package qm

import (
	"errors"
	"fmt"
	"strings"
)

// Error messages.
const (
	ErrMissingCoords = "qmbatch/QM: Missing record or coordinates"
	ErrCantInput     = "qmbatch/QM: Unable to build input"
	ErrNotRunning    = "qmbatch/QM: The program returned an error"
	ErrNoOutput      = "qmbatch/QM: Output file not found"
	ErrCantOutput    = "qmbatch/QM: Unable to read output"
	ErrNoEnergy      = "qmbatch/QM: Couldn't obtain energy"
	ErrNoTime        = "qmbatch/QM: Couldn't obtain calculation time"
)

// Error is the error type for the qm package.
type Error struct {
	message    string
	code       string //the QM program
	inputname  string //the input file that has problems, or empty string if none.
	additional string
	deco       []string
	critical   bool
}

func (err Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s", err.message, err.code)
	if err.inputname != "" {
		fmt.Fprintf(&b, ", job %s", err.inputname)
	}
	b.WriteString(")")
	if err.additional != "" {
		b.WriteString(": " + err.additional)
	}
	return b.String()
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

// Message returns the bare message, one of the Err constants.
func (err Error) Message() string { return err.message }

func (err Error) Code() string { return err.code }

func (err Error) InputName() string { return err.inputname }

// Critical returns false for errors that only mean that some result is missing.
func (err Error) Critical() bool { return err.critical }

// Is returns true if err is a qm Error with the given message.
func Is(err error, message string) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}
	return e.message == message
}
