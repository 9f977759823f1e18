/*
 * run.go, part of qmbatch.
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
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rmera/qmbatch/batch"
	"github.com/rmera/qmbatch/config"
	"github.com/rmera/qmbatch/ledger"
	"github.com/rmera/qmbatch/qm"
	"github.com/rmera/qmbatch/xyz"
)

var runFlags config.RunConfig

var runCmd = &cobra.Command{
	Use:   "run DATASET",
	Short: "Run single points over every pending molecule of DATASET",
	Long: `run computes a single point for every molecule of DATASET that the
processed and errored ledgers don't list, and whose ID doesn't start with the
sentinel. Energies and wall times go to DATASET with its extension replaced
by .out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg.Run
		override(cmd, "engine", &c.Engine, runFlags.Engine)
		override(cmd, "command", &c.Command, runFlags.Command)
		override(cmd, "threads", &c.Threads, runFlags.Threads)
		override(cmd, "method", &c.Method, runFlags.Method)
		override(cmd, "basis", &c.Basis, runFlags.Basis)
		override(cmd, "memory", &c.Memory, runFlags.Memory)
		override(cmd, "charge", &c.Charge, runFlags.Charge)
		override(cmd, "multi", &c.Multi, runFlags.Multi)
		override(cmd, "workdir", &c.WorkDir, runFlags.WorkDir)
		override(cmd, "sentinel", &c.Sentinel, runFlags.Sentinel)
		override(cmd, "processed", &c.Processed, runFlags.Processed)
		override(cmd, "errored", &c.Errored, runFlags.Errored)
		override(cmd, "cleanup", &c.Cleanup, runFlags.Cleanup)
		cfg.Run = c
		if err := cfg.Validate(); err != nil {
			return err
		}
		h, err := c.Handle()
		if err != nil {
			return err
		}
		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()
		_, err = runBatch(ctx, args[0], c, h, slog.Default())
		return err
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.Engine, "engine", "", "QM program, psi4 or orca")
	f.StringVar(&runFlags.Command, "command", "", "path to the QM program")
	f.IntVar(&runFlags.Threads, "threads", 0, "threads for the QM program")
	f.StringVar(&runFlags.Method, "method", "", "method")
	f.StringVar(&runFlags.Basis, "basis", "", "basis set")
	f.IntVar(&runFlags.Memory, "memory", 0, "memory for the QM program, in MB")
	f.IntVar(&runFlags.Charge, "charge", 0, "total charge")
	f.IntVar(&runFlags.Multi, "multi", 0, "spin multiplicity")
	f.StringVar(&runFlags.WorkDir, "workdir", "", "directory for inputs and outputs")
	f.StringVar(&runFlags.Sentinel, "sentinel", "", "prefix of molecule IDs excluded by hand")
	f.StringVar(&runFlags.Processed, "processed", "", "processed ledger, a path or a bucket URL")
	f.StringVar(&runFlags.Errored, "errored", "", "errored ledger, a path or a bucket URL")
	f.BoolVar(&runFlags.Cleanup, "cleanup", false, "delete each molecule's input and output after use")
}

func runBatch(ctx context.Context, dataset string, c config.RunConfig, h qm.Handle, log *slog.Logger) (*batch.Summary, error) {
	recs, err := xyz.ReadFile(dataset)
	if err != nil {
		return nil, err
	}
	book, err := ledger.LoadBook(ctx, c.Processed, c.Errored)
	if err != nil {
		return nil, err
	}
	processed, errored := book.Len()
	log.Info("Ledgers loaded", slog.Int("processed", processed), slog.Int("errored", errored))

	P := batch.New(
		batch.WithHandle(h),
		batch.WithCalc(c.Calc()),
		batch.WithLedger(book),
		batch.WithSentinel(c.Sentinel),
		batch.WithCleanup(c.Cleanup),
		batch.WithLogger(log),
		batch.WithProgress(func(p batch.Progress) {
			log.Debug("Progress", slog.Int("done", p.Index+1), slog.Int("total", p.Total),
				slog.String("mol_id", p.ID), slog.String("outcome", p.Outcome.String()))
		}),
	)
	table := batch.TablePath(dataset)
	log.Info("Starting batch", slog.String("dataset", dataset), slog.String("results", table),
		slog.Int("molecules", len(recs)), slog.String("engine", c.Engine))
	sum, err := P.Process(ctx, recs, table)
	if sum != nil {
		log.Info("Batch finished", slog.Int("ran", sum.Ran), slog.Int("processed", sum.Processed),
			slog.Int("errored", sum.Errored), slog.Int("marked", sum.Marked),
			slog.Int("run_errors", sum.RunErrors), slog.Int("no_output", sum.NoOutput),
			slog.Int("no_energy", sum.NoEnergy), slog.Int("no_time", sum.NoTime),
			slog.Duration("elapsed", sum.Elapsed))
	}
	return sum, err
}
