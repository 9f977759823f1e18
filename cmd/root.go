/*
 * root.go, part of qmbatch.
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
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmera/qmbatch/config"
)

var (
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qmbatch",
	Short: "Split molecule datasets and run QM single points over them",
	Long: `qmbatch splits a multi-molecule XYZ dataset into a tree of smaller files,
and runs single point calculations over one of those files, resuming where
previous runs left off.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		//arguments are valid by now, so usage is only noise
		cmd.SilenceUsage = true
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		logCloser, err = setupLogging(cfg.Log, cmd.Name())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./qmbatch.yaml if present)")
	rootCmd.AddCommand(splitCmd, runCmd, reportCmd, exportCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("qmbatch failed", slog.Any("error", err))
	}
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
