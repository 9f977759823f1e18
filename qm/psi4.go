/*
 * psi4.go, part of qmbatch.
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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rmera/qmbatch/xyz"
)

var (
	psi4EnergyRe = regexp.MustCompile(`Total Energy =\s+([-\d.]+)`)
	psi4TimeRe   = regexp.MustCompile(`total time\s+=\s+[\d.]+\sseconds\s+=\s+([\d.]+)\sminutes`)
)

// Psi4Energy returns the first total energy printed in a Psi4 output, and
// false if there is none, or if it can't be parsed as a number.
func Psi4Energy(out string) (float64, bool) {
	return firstFloat(psi4EnergyRe, out)
}

// Psi4Minutes returns the total wall time, in minutes, printed in a Psi4 output.
func Psi4Minutes(out string) (float64, bool) {
	return firstFloat(psi4TimeRe, out)
}

func firstFloat(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Psi4Handle runs single points with Psi4. The input file is named after
// the job, with no extension, and Psi4 leaves its output in name.dat.
type Psi4Handle struct {
	command   string
	inputname string
	dir       string
	nCPU      int
	runner    Runner
}

func NewPsi4Handle() *Psi4Handle {
	run := new(Psi4Handle)
	run.SetDefaults()
	return run
}

//Psi4Handle methods

// SetDefaults sets 40 threads, the current directory, and the psi4 command,
// taken from $PSI4_PATH if set, or from the PATH otherwise.
func (O *Psi4Handle) SetDefaults() {
	O.command = "psi4"
	if p := os.Getenv("PSI4_PATH"); p != "" {
		O.command = filepath.Join(p, "psi4")
	}
	O.nCPU = 40
	O.dir = "."
	O.runner = ExecRunner{}
}

func (O *Psi4Handle) configure(S Settings) {
	if S.Command != "" {
		O.SetCommand(S.Command)
	}
	if S.NCPU > 0 {
		O.SetnCPU(S.NCPU)
	}
	if S.Dir != "" {
		O.SetDir(S.Dir)
	}
	if S.Runner != nil {
		O.SetRunner(S.Runner)
	}
}

//Sets the number of threads Psi4 will use
func (O *Psi4Handle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

func (O *Psi4Handle) SetName(name string) {
	O.inputname = name
}

func (O *Psi4Handle) SetCommand(name string) {
	O.command = name
}

func (O *Psi4Handle) Command() string {
	return O.command
}

func (O *Psi4Handle) SetDir(dir string) {
	O.dir = dir
}

func (O *Psi4Handle) SetRunner(r Runner) {
	O.runner = r
}

func (O *Psi4Handle) InputName() string {
	return filepath.Join(O.dir, O.inputname)
}

func (O *Psi4Handle) OutputName() string {
	return O.InputName() + ".dat"
}

// BuildInput writes a single point input for the record. The coordinate lines
// are copied as read, less their line terminators. If no name has been set, the
// record's ID is used.
func (O *Psi4Handle) BuildInput(rec *xyz.Record, Q *Calc) error {
	if rec == nil {
		return Error{ErrMissingCoords, Psi4, O.inputname, "", []string{"BuildInput"}, true}
	}
	if O.inputname == "" {
		O.inputname = rec.ID
	}
	Q = fill(Q)
	file, err := os.Create(O.InputName())
	if err != nil {
		return Error{ErrCantInput, Psi4, O.inputname, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "memory %s\n\n", memory(Q.Memory))
	fmt.Fprintf(w, "molecule %s {\n", rec.ID)
	fmt.Fprintf(w, "%d %d\n", Q.Charge, Q.Multi)
	for _, c := range rec.Coords {
		fmt.Fprintf(w, "%s\n", c)
	}
	fmt.Fprintf(w, "}\n\n")
	fmt.Fprintf(w, "set {\n  basis %s\n}\n\n", Q.Basis)
	fmt.Fprintf(w, "energy('%s')\n", Q.Method)
	//bufio keeps the first error, so one check is enough.
	if err = w.Flush(); err != nil {
		return Error{ErrCantInput, Psi4, O.inputname, err.Error(), []string{"Flush", "BuildInput"}, true}
	}
	if err = file.Close(); err != nil {
		return Error{ErrCantInput, Psi4, O.inputname, err.Error(), []string{"Close", "BuildInput"}, true}
	}
	return nil
}

// Run runs Psi4 on the input previously built, and waits for it.
func (O *Psi4Handle) Run(ctx context.Context) error {
	err := O.runner.Run(ctx, O.dir, nil, O.command, O.inputname, "-n", strconv.Itoa(O.nCPU))
	if err != nil {
		return Error{ErrNotRunning, Psi4, O.inputname, err.Error(), []string{"Run"}, false}
	}
	return nil
}

// Output reads the total energy and the wall time from the .dat file.
// A missing file gives a non-critical error.
func (O *Psi4Handle) Output() (*Output, error) {
	data, err := os.ReadFile(O.OutputName())
	if os.IsNotExist(err) {
		return nil, Error{ErrNoOutput, Psi4, O.inputname, O.OutputName(), []string{"Output"}, false}
	}
	if err != nil {
		return nil, Error{ErrCantOutput, Psi4, O.inputname, err.Error(), []string{"os.ReadFile", "Output"}, true}
	}
	text := string(data)
	out := new(Output)
	if e, ok := Psi4Energy(text); ok {
		out.Energy = &e
	}
	if m, ok := Psi4Minutes(text); ok {
		out.Minutes = &m
	}
	return out, nil
}

// Energy returns the total energy of the last run, in Hartree.
func (O *Psi4Handle) Energy() (float64, error) {
	out, err := O.Output()
	if err != nil {
		return 0, err
	}
	if out.Energy == nil {
		return 0, Error{ErrNoEnergy, Psi4, O.inputname, "", []string{"Energy"}, false}
	}
	return *out.Energy, nil
}

// CalcTime returns the wall time of the last run, in minutes.
func (O *Psi4Handle) CalcTime() (float64, error) {
	out, err := O.Output()
	if err != nil {
		return 0, err
	}
	if out.Minutes == nil {
		return 0, Error{ErrNoTime, Psi4, O.inputname, "", []string{"CalcTime"}, false}
	}
	return *out.Minutes, nil
}
