/*
 * split.go, part of qmbatch.
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

	"github.com/rmera/qmbatch/config"
	"github.com/rmera/qmbatch/split"
	"github.com/rmera/qmbatch/xyz"
)

var splitFlags config.SplitConfig

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split the source dataset into main_dir_NNN/subdir_NN/file_NN.xyz",
	Long: `split distributes the molecules of the source dataset over primary*sub
files, main_dir_NNN/subdir_NN/file_NN.xyz under the root directory. Every
group it writes is recreated from scratch. Groups numbered beyond the new
shape, left by an earlier split with more groups, are kept unless --prune
(split.prune in the config file) is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := cfg.Split
		override(cmd, "source", &c.Source, splitFlags.Source)
		override(cmd, "primary", &c.Primary, splitFlags.Primary)
		override(cmd, "sub", &c.Sub, splitFlags.Sub)
		override(cmd, "root", &c.Root, splitFlags.Root)
		override(cmd, "prune", &c.Prune, splitFlags.Prune)
		cfg.Split = c
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()
		_, err := runSplit(ctx, c, slog.Default())
		return err
	},
}

func init() {
	f := splitCmd.Flags()
	f.StringVar(&splitFlags.Source, "source", "", "dataset to split (.xyz, .xyz.gz or .xyz.zst)")
	f.IntVar(&splitFlags.Primary, "primary", 0, "number of main_dir groups")
	f.IntVar(&splitFlags.Sub, "sub", 0, "number of subdirectories per group")
	f.StringVar(&splitFlags.Root, "root", "", "directory where the groups are created")
	f.BoolVar(&splitFlags.Prune, "prune", false, "remove main_dir groups beyond the last one written")
}

// override sets *dst to val if the flag name was given in the command line.
func override[T any](cmd *cobra.Command, name string, dst *T, val T) {
	if cmd.Flags().Changed(name) {
		*dst = val
	}
}

func runSplit(ctx context.Context, c config.SplitConfig, log *slog.Logger) ([]split.Leaf, error) {
	recs, err := xyz.ReadFile(c.Source)
	if err != nil {
		return nil, err
	}
	plan, err := split.NewPlan(len(recs), c.Primary, c.Sub)
	if err != nil {
		return nil, err
	}
	if plan.Base == 0 {
		log.Warn("Fewer molecules than leaf files, some files won't be written",
			slog.Int("molecules", plan.Total), slog.Int("leaves", plan.Leaves()))
	}
	log.Info("Splitting dataset", slog.String("source", c.Source), slog.Int("molecules", plan.Total),
		slog.Int("primary", plan.Primary), slog.Int("sub", plan.Sub), slog.Int("base", plan.Base),
		slog.Int("remainder", plan.Remainder))
	S := split.New(c.Root, split.WithPrune(c.Prune), split.WithLogger(log))
	leaves, err := S.Split(ctx, recs, plan)
	if err != nil {
		return leaves, err
	}
	log.Info("Dataset split", slog.Int("files", len(leaves)), slog.String("root", c.Root))
	return leaves, nil
}
