/*
 * orca.go, part of qmbatch.
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
	"runtime"
	"strconv"

	"github.com/rmera/qmbatch/xyz"
)

var (
	orcaEnergyRe = regexp.MustCompile(`FINAL SINGLE POINT ENERGY\s+(-?[\d.]+)`)
	orcaTimeRe   = regexp.MustCompile(`TOTAL RUN TIME:\s+(\d+) days (\d+) hours (\d+) minutes (\d+) seconds (\d+) msec`)
)

// OrcaEnergy returns the last single point energy printed in an ORCA output.
func OrcaEnergy(out string) (float64, bool) {
	all := orcaEnergyRe.FindAllStringSubmatch(out, -1)
	if all == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(all[len(all)-1][1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// OrcaMinutes returns the total run time of an ORCA calculation, in minutes.
func OrcaMinutes(out string) (float64, bool) {
	m := orcaTimeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	var parts [5]float64
	for i := range parts {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		parts[i] = float64(v)
	}
	return parts[0]*24*60 + parts[1]*60 + parts[2] + parts[3]/60 + parts[4]/60000, true
}

//Note that the default methods and basis vary with each program, and even
//for a given program they are NOT considered part of the API, so they can always change.
type OrcaHandle struct {
	command   string
	inputname string
	dir       string
	nCPU      int
	runner    Runner
}

func NewOrcaHandle() *OrcaHandle {
	run := new(OrcaHandle)
	run.SetDefaults()
	return run
}

//OrcaHandle methods

/*Sets defaults for ORCA calculation. All the available CPUs are used,
and the ORCA command is set to $ORCA_PATH/orca, or to orca in the PATH
if ORCA_PATH is not defined.*/
func (O *OrcaHandle) SetDefaults() {
	O.command = os.ExpandEnv("${ORCA_PATH}/orca")
	if O.command == "/orca" { //if ORCA_PATH was not defined
		O.command = "orca"
	}
	O.nCPU = runtime.NumCPU()
	O.dir = "."
	O.runner = ExecRunner{}
}

func (O *OrcaHandle) configure(S Settings) {
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

//Sets the number of CPU to be used
func (O *OrcaHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

func (O *OrcaHandle) SetName(name string) {
	O.inputname = name
}

func (O *OrcaHandle) SetCommand(name string) {
	O.command = name
}

func (O *OrcaHandle) SetDir(dir string) {
	O.dir = dir
}

func (O *OrcaHandle) SetRunner(r Runner) {
	O.runner = r
}

func (O *OrcaHandle) InputName() string {
	return filepath.Join(O.dir, O.inputname+".inp")
}

func (O *OrcaHandle) OutputName() string {
	return filepath.Join(O.dir, O.inputname+".out")
}

//BuildInput builds a single point input for ORCA. ORCA takes memory per core, so
//Q.Memory is divided among the CPUs.
func (O *OrcaHandle) BuildInput(rec *xyz.Record, Q *Calc) error {
	if rec == nil {
		return Error{ErrMissingCoords, Orca, O.inputname, "", []string{"BuildInput"}, true}
	}
	if O.inputname == "" {
		O.inputname = rec.ID
	}
	Q = fill(Q)
	hfuhf := "RHF"
	if Q.Multi != 1 {
		hfuhf = "UHF"
	}
	file, err := os.Create(O.InputName())
	if err != nil {
		return Error{ErrCantInput, Orca, O.inputname, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "! %s %s %s TightSCF\n", hfuhf, Q.Method, Q.Basis)
	if O.nCPU > 1 {
		fmt.Fprintf(w, "%%pal nprocs %d\n   end\n", O.nCPU)
	}
	fmt.Fprintf(w, "%%MaxCore %d\n", Q.Memory/max(O.nCPU, 1))
	fmt.Fprintf(w, "\n* xyz %d %d\n", Q.Charge, Q.Multi)
	for _, c := range rec.Coords {
		fmt.Fprintf(w, "%s\n", c)
	}
	fmt.Fprintf(w, "*\n")
	if err = w.Flush(); err != nil {
		return Error{ErrCantInput, Orca, O.inputname, err.Error(), []string{"Flush", "BuildInput"}, true}
	}
	if err = file.Close(); err != nil {
		return Error{ErrCantInput, Orca, O.inputname, err.Error(), []string{"Close", "BuildInput"}, true}
	}
	return nil
}

//Run runs ORCA on the input previously built, sending its output to name.out,
//and waits for it.
func (O *OrcaHandle) Run(ctx context.Context) error {
	out, err := os.Create(O.OutputName())
	if err != nil {
		return Error{ErrNotRunning, Orca, O.inputname, err.Error(), []string{"os.Create", "Run"}, false}
	}
	defer out.Close()
	err = O.runner.Run(ctx, O.dir, out, O.command, O.inputname+".inp")
	if err != nil {
		return Error{ErrNotRunning, Orca, O.inputname, err.Error(), []string{"Run"}, false}
	}
	return nil
}

//Output reads the final single point energy and the total run time from the output.
func (O *OrcaHandle) Output() (*Output, error) {
	data, err := os.ReadFile(O.OutputName())
	if os.IsNotExist(err) {
		return nil, Error{ErrNoOutput, Orca, O.inputname, O.OutputName(), []string{"Output"}, false}
	}
	if err != nil {
		return nil, Error{ErrCantOutput, Orca, O.inputname, err.Error(), []string{"os.ReadFile", "Output"}, true}
	}
	text := string(data)
	out := new(Output)
	if e, ok := OrcaEnergy(text); ok {
		out.Energy = &e
	}
	if m, ok := OrcaMinutes(text); ok {
		out.Minutes = &m
	}
	return out, nil
}

//Gets the energy of a previous Orca calculation, in Hartree.
func (O *OrcaHandle) Energy() (float64, error) {
	out, err := O.Output()
	if err != nil {
		return 0, err
	}
	if out.Energy == nil {
		return 0, Error{ErrNoEnergy, Orca, O.inputname, "", []string{"Energy"}, false}
	}
	return *out.Energy, nil
}

//Gets the wall time of a previous Orca calculation, in minutes.
func (O *OrcaHandle) CalcTime() (float64, error) {
	out, err := O.Output()
	if err != nil {
		return 0, err
	}
	if out.Minutes == nil {
		return 0, Error{ErrNoTime, Orca, O.inputname, "", []string{"CalcTime"}, false}
	}
	return *out.Minutes, nil
}
