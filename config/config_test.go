/*
 * config_test.go, part of qmbatch.
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmera/qmbatch/qm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 552, cfg.Split.Primary)
	require.Equal(t, 2, cfg.Split.Sub)
	require.Equal(t, "tmqm_co_diss_xtb_opt.xyz", cfg.Split.Source)
	require.Equal(t, 40, cfg.Run.Threads)
	require.Equal(t, "*", cfg.Run.Sentinel)
	require.Equal(t, "processed_molecules.csv", cfg.Run.Processed)
	require.Equal(t, "error_molecules.csv", cfg.Run.Errored)
	require.False(t, cfg.Run.Cleanup)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QMBATCH_RUN_THREADS", "8")
	t.Setenv("QMBATCH_RUN_ENGINE", "ORCA")
	t.Setenv("QMBATCH_SPLIT_PRUNE", "true")
	t.Setenv("QMBATCH_RUN_ERRORED", "s3://runs/error_molecules.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Run.Threads)
	require.Equal(t, qm.Orca, cfg.Run.Engine)
	require.True(t, cfg.Split.Prune)
	require.Equal(t, "s3://runs/error_molecules.csv", cfg.Run.Errored)
	require.Equal(t, "processed_molecules.csv", cfg.Run.Processed)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qmbatch.yaml")
	yaml := `split:
  source: mols.xyz.zst
  primary: 4
run:
  basis: def2-TZVP
  memory: 4096
  cleanup: true
log:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("QMBATCH_SPLIT_PRIMARY", "6")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mols.xyz.zst", cfg.Split.Source)
	require.Equal(t, 6, cfg.Split.Primary, "the environment wins over the file")
	require.Equal(t, 2, cfg.Split.Sub)
	require.Equal(t, "def2-TZVP", cfg.Run.Basis)
	require.Equal(t, "wb97mv", cfg.Run.Method)
	require.True(t, cfg.Run.Cleanup)
	require.Equal(t, "debug", cfg.Log.Level)

	Q := cfg.Run.Calc()
	require.Equal(t, 4096, Q.Memory)
	require.Equal(t, 1, Q.Multi)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	t.Setenv("QMBATCH_RUN_ENGINE", "gaussian")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	cfg.Split.Sub = 0
	require.Error(t, cfg.Validate())
	cfg = Default()
	cfg.Run.Threads = 0
	require.Error(t, cfg.Validate())
	cfg = Default()
	cfg.Log.Level = "verbose"
	require.Error(t, cfg.Validate())
}

func TestHandle(t *testing.T) {
	cfg := Default()
	h, err := cfg.Run.Handle()
	require.NoError(t, err)
	_, ok := h.(*qm.Psi4Handle)
	require.True(t, ok)

	cfg.Run.Engine = "gaussian"
	_, err = cfg.Run.Handle()
	require.Error(t, err)
}
