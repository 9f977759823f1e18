/*
 * processor.go, part of qmbatch.
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

// Package batch runs a QM program over every molecule of a dataset that previous
// runs have not settled, and collects energies and wall times in a results table.
//
// Molecules are processed strictly one after the other. A molecule is skipped if
// the ledger has it as processed or as errored, or if its ID starts with the
// sentinel that marks manually excluded molecules. Missing outputs and missing
// quantities are logged and recorded as empty cells; only failing to write an
// input or a row stops the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rmera/qmbatch/ledger"
	"github.com/rmera/qmbatch/qm"
	"github.com/rmera/qmbatch/xyz"
)

// DefaultSentinel starts the IDs of molecules excluded by hand.
const DefaultSentinel = "*"

// Outcome is what happened to one molecule.
type Outcome int

const (
	Ran Outcome = iota
	SkippedProcessed
	SkippedErrored
	SkippedMarked
)

func (o Outcome) String() string {
	switch o {
	case Ran:
		return "ran"
	case SkippedProcessed:
		return "already processed"
	case SkippedErrored:
		return "errored previously"
	case SkippedMarked:
		return "marked"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Summary counts what a run did.
type Summary struct {
	Total     int
	Ran       int
	Processed int //skipped, already processed
	Errored   int //skipped, errored previously
	Marked    int //skipped, sentinel
	RunErrors int //the program returned an error
	NoOutput  int
	NoEnergy  int //output present, energy missing
	NoTime    int //output present, time missing
	Elapsed   time.Duration
}

// Progress is passed to the progress callback after each molecule.
type Progress struct {
	Index   int //0-based
	Total   int
	ID      string
	Outcome Outcome
	Row     *Row //nil for skipped molecules
}

// Processor drives the QM program over a dataset.
type Processor struct {
	handle   qm.Handle
	calc     *qm.Calc
	ledger   ledger.Ledger
	sentinel string
	cleanup  bool
	log      *slog.Logger
	progress func(Progress)
}

// Option configures a Processor.
type Option func(*Processor)

// WithHandle sets the QM program handle. The default is a Psi4 handle with its
// defaults.
func WithHandle(h qm.Handle) Option {
	return func(P *Processor) { P.handle = h }
}

// WithCalc sets the calculation settings.
func WithCalc(Q *qm.Calc) Option {
	return func(P *Processor) { P.calc = Q }
}

// WithLedger sets where the status of previous runs is looked up. Without a
// ledger every molecule not marked is run.
func WithLedger(l ledger.Ledger) Option {
	return func(P *Processor) { P.ledger = l }
}

// WithSentinel sets the prefix of manually excluded IDs. An empty sentinel
// excludes nothing.
func WithSentinel(s string) Option {
	return func(P *Processor) { P.sentinel = s }
}

// WithCleanup makes the processor delete each molecule's input and output once
// its row is written. Files are kept by default.
func WithCleanup(c bool) Option {
	return func(P *Processor) { P.cleanup = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(P *Processor) { P.log = l }
}

// WithProgress sets a function to be called after each molecule.
func WithProgress(f func(Progress)) Option {
	return func(P *Processor) { P.progress = f }
}

type noLedger struct{}

func (noLedger) Status(string) ledger.Status { return ledger.Unknown }

// New returns a Processor.
func New(opts ...Option) *Processor {
	calc := new(qm.Calc)
	calc.SetDefaults()
	P := &Processor{
		handle:   qm.NewPsi4Handle(),
		calc:     calc,
		ledger:   noLedger{},
		sentinel: DefaultSentinel,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(P)
	}
	return P
}

// Classify returns what the processor will do with the molecule id.
func (P *Processor) Classify(id string) Outcome {
	switch P.ledger.Status(id) {
	case ledger.Processed:
		return SkippedProcessed
	case ledger.Errored:
		return SkippedErrored
	}
	if P.sentinel != "" && strings.HasPrefix(id, P.sentinel) {
		return SkippedMarked
	}
	return Ran
}

// Process creates a fresh results table at tablePath and processes recs into it.
func (P *Processor) Process(ctx context.Context, recs []*xyz.Record, tablePath string) (*Summary, error) {
	T, err := CreateTable(tablePath)
	if err != nil {
		return nil, err
	}
	sum, err := P.ProcessTo(ctx, recs, T)
	if cerr := T.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing results table: %w", cerr)
	}
	return sum, err
}

// ProcessTo processes recs, appending a row to w for every molecule run. It
// stops at the first fatal error, or before the next molecule if ctx is done,
// and returns the summary so far along with the error.
func (P *Processor) ProcessTo(ctx context.Context, recs []*xyz.Record, w RowWriter) (*Summary, error) {
	start := time.Now()
	sum := &Summary{Total: len(recs)}
	defer func() { sum.Elapsed = time.Since(start) }()
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		outcome := P.Classify(rec.ID)
		var row *Row
		switch outcome {
		case SkippedProcessed:
			sum.Processed++
			P.log.Info("Already processed, skipping", slog.String("mol_id", rec.ID))
		case SkippedErrored:
			sum.Errored++
			P.log.Info("Errored previously, skipping", slog.String("mol_id", rec.ID))
		case SkippedMarked:
			sum.Marked++
			P.log.Info("Marked, skipping", slog.String("mol_id", rec.ID), slog.String("sentinel", P.sentinel))
		case Ran:
			r, err := P.run(ctx, rec, sum)
			if err != nil {
				return sum, err
			}
			if err := w.Append(*r); err != nil {
				return sum, err
			}
			sum.Ran++
			row = r
			P.log.Info("Results saved", slog.String("mol_id", rec.ID),
				slog.String("energy", FormatFloat(r.Energy)), slog.String("calc_time", FormatFloat(r.Minutes)))
			if P.cleanup {
				P.clean()
			}
		}
		if P.progress != nil {
			P.progress(Progress{Index: i, Total: len(recs), ID: rec.ID, Outcome: outcome, Row: row})
		}
	}
	return sum, nil
}

// run builds the input for rec, runs the program and reads its output. The
// program's own exit status is only logged: whether the calculation worked is
// judged from the output alone.
func (P *Processor) run(ctx context.Context, rec *xyz.Record, sum *Summary) (*Row, error) {
	h := P.handle
	h.SetName(rec.ID)
	if err := h.BuildInput(rec, P.calc); err != nil {
		return nil, fmt.Errorf("building input for %s: %w", rec.ID, decorate(err, "Processor.run"))
	}
	P.log.Info("Generated input", slog.String("mol_id", rec.ID), slog.String("input", h.InputName()))
	t := time.Now()
	if err := h.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sum.RunErrors++
		P.log.Warn("QM program returned an error", slog.String("mol_id", rec.ID), slog.Any("error", err))
	}
	P.log.Debug("QM program finished", slog.String("mol_id", rec.ID), slog.Duration("elapsed", time.Since(t)))

	row := &Row{MolID: rec.ID}
	out, err := h.Output()
	switch {
	case qm.Is(err, qm.ErrNoOutput):
		sum.NoOutput++
		P.log.Error("Output not found", slog.String("mol_id", rec.ID), slog.String("output", h.OutputName()))
		return row, nil
	case err != nil:
		sum.NoOutput++
		P.log.Error("Unable to read output", slog.String("mol_id", rec.ID), slog.Any("error", err))
		return row, nil
	}
	row.Energy, row.Minutes = out.Energy, out.Minutes
	if row.Energy == nil {
		sum.NoEnergy++
		P.log.Warn("No energy in output", slog.String("mol_id", rec.ID), slog.String("output", h.OutputName()))
	}
	if row.Minutes == nil {
		sum.NoTime++
		P.log.Warn("No calculation time in output", slog.String("mol_id", rec.ID), slog.String("output", h.OutputName()))
	}
	return row, nil
}

// decorate adds caller to the trace of qm errors. Other errors are returned as they are.
func decorate(err error, caller string) error {
	var qerr qm.Error
	if errors.As(err, &qerr) {
		qerr.Decorate(caller)
		return qerr
	}
	return err
}

func (P *Processor) clean() {
	for _, name := range []string{P.handle.InputName(), P.handle.OutputName()} {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			P.log.Warn("Unable to remove file", slog.String("file", name), slog.Any("error", err))
		}
	}
}
