/*
 * qm.go, part of qmbatch.
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
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rmera/qmbatch/xyz"
)

// Program names, as used in configuration and in errors.
const (
	Psi4 = "psi4"
	Orca = "orca"
)

// Handle allows to set QM calculations using different programs.
type Handle interface {

	//Sets the name for the job, used for input
	//and output files. The extentions will depend on the program.
	SetName(name string)

	//InputName and OutputName return the paths of the input the handle
	//builds and of the output the program is expected to leave.
	InputName() string
	OutputName() string

	//BuildInput builds an input for the QM program based on the record
	//and on Q.
	BuildInput(rec *xyz.Record, Q *Calc) error

	//Run runs the QM program for a calculation previously set, and waits
	//for it to finish.
	Run(ctx context.Context) error

	//Output reads the program's output. It only returns an error if the output
	//can't be read. Quantities missing from it are left nil.
	Output() (*Output, error)

	//Energy gets the energy of the last calculation, in Hartree.
	Energy() (float64, error)

	//CalcTime gets the wall time of the last calculation, in minutes.
	CalcTime() (float64, error)
}

// Calc holds the settings of a calculation that don't depend on the program used.
type Calc struct {
	Method string
	Basis  string
	Memory int //Max memory to be used in MB (the effect depends on the QM program)
	Charge int
	Multi  int
}

// SetDefaults sets a wB97M-V/def2-SVPD single point on a neutral singlet, with 80 GB of memory.
func (Q *Calc) SetDefaults() {
	Q.Method = "wb97mv"
	Q.Basis = "def2-SVPD"
	Q.Memory = 80 * 1024
	Q.Charge = 0
	Q.Multi = 1
}

// Output holds what could be recovered from a program's output.
type Output struct {
	Energy  *float64 //Hartree
	Minutes *float64 //wall time
}

// Settings are the program-independent knobs of a handle.
type Settings struct {
	Command string //empty for the program's default
	NCPU    int    //0 for the program's default
	Dir     string //where inputs are written and the program runs
	Runner  Runner //nil for ExecRunner
}

// NewHandle returns a handle for program, configured with S.
func NewHandle(program string, S Settings) (Handle, error) {
	switch program {
	case Psi4, "":
		h := NewPsi4Handle()
		h.configure(S)
		return h, nil
	case Orca:
		h := NewOrcaHandle()
		h.configure(S)
		return h, nil
	}
	return nil, fmt.Errorf("unsupported QM program %q", program)
}

// Runner runs an external program and waits for it. The program runs in dir, and
// its standard output goes to stdout, or to the process' own standard output if
// stdout is nil.
type Runner interface {
	Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) error

func (f RunnerFunc) Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) error {
	return f(ctx, dir, stdout, name, args...)
}

// ExecRunner runs programs with os/exec. Cancelling the context kills the program.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) error {
	command := exec.CommandContext(ctx, name, args...)
	command.Dir = dir
	command.Stdout = stdout
	if stdout == nil {
		command.Stdout = os.Stdout
	}
	command.Stderr = os.Stderr
	return command.Run()
}

// memory renders a memory amount in MB the way most programs take it.
func memory(mb int) string {
	if mb%1024 == 0 {
		return fmt.Sprintf("%d GB", mb/1024)
	}
	return fmt.Sprintf("%d MB", mb)
}

//fill completes Q with the defaults for whatever is missing.
func fill(Q *Calc) *Calc {
	d := new(Calc)
	d.SetDefaults()
	if Q == nil {
		return d
	}
	c := *Q
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.Basis == "" {
		c.Basis = d.Basis
	}
	if c.Memory <= 0 {
		c.Memory = d.Memory
	}
	if c.Multi <= 0 {
		c.Multi = d.Multi
	}
	return &c
}
