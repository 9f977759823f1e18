/*
 * ledger_test.go, part of qmbatch.
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

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestReadIDs(t *testing.T) {
	ids, err := ReadIDs(strings.NewReader("mol_id,energy,calc_time\nmolA,-1.2,3.0\n\nmolB\n  molC  ,x\n"))
	require.NoError(t, err)
	require.Equal(t, 3, ids.Cardinality())
	require.True(t, ids.Contains("molA", "molB", "molC"))
	require.False(t, ids.Contains("mol_id"), "the header is not an ID")
}

func TestReadIDsEmpty(t *testing.T) {
	ids, err := ReadIDs(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, 0, ids.Cardinality())
	ids, err = ReadIDs(strings.NewReader("mol_id\n"))
	require.NoError(t, err)
	require.Equal(t, 0, ids.Cardinality())
}

func TestBook(t *testing.T) {
	B := NewBook([]string{"a", "both"}, []string{"b", "both"})
	require.Equal(t, Processed, B.Status("a"))
	require.Equal(t, Errored, B.Status("b"))
	require.Equal(t, Processed, B.Status("both"))
	require.Equal(t, Unknown, B.Status("c"))
	p, e := B.Len()
	require.Equal(t, 2, p)
	require.Equal(t, 2, e)
	require.Equal(t, "errored", Errored.String())
}

func writeTable(t *testing.T, dir, name string, ids ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "mol_id\n" + strings.Join(ids, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "processed_molecules.csv", "x1", "x2")
	ids, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.True(t, ids.Contains("x1", "x2"))

	ids, err = Load(context.Background(), filepath.Join(dir, "missing.csv"))
	require.NoError(t, err)
	require.Equal(t, 0, ids.Cardinality())

	ids, err = Load(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 0, ids.Cardinality())
}

func TestLoadFileURL(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "error_molecules.csv", "bad1")
	ids, err := Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/error_molecules.csv")
	require.NoError(t, err)
	require.True(t, ids.Contains("bad1"))

	ids, err = Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/nothere.csv")
	require.NoError(t, err)
	require.Equal(t, 0, ids.Cardinality())

	ids, err = Load(context.Background(), "file://"+filepath.ToSlash(dir)+"/nodir/processed.csv")
	require.NoError(t, err, "a missing directory is a missing table")
	require.Equal(t, 0, ids.Cardinality())
}

func TestSplitURL(t *testing.T) {
	b, k, err := splitURL("s3://runs/RUN_5200/processed_molecules.csv?region=us-east-1")
	require.NoError(t, err)
	require.Equal(t, "s3://runs?region=us-east-1", b)
	require.Equal(t, "RUN_5200/processed_molecules.csv", k)

	b, k, err = splitURL("file:///scratch/run/error_molecules.csv")
	require.NoError(t, err)
	require.Equal(t, "file:///scratch/run/", b)
	require.Equal(t, "error_molecules.csv", k)

	_, _, err = splitURL("gs://only-bucket")
	require.Error(t, err)
	_, _, err = splitURL("file:///scratch/run/")
	require.Error(t, err)
}

func TestLoadBook(t *testing.T) {
	dir := t.TempDir()
	p := writeTable(t, dir, "processed.csv", "molA")
	e := writeTable(t, dir, "errored.csv", "molB")
	B, err := LoadBook(context.Background(), p, e)
	require.NoError(t, err)
	require.Equal(t, Processed, B.Status("molA"))
	require.Equal(t, Errored, B.Status("molB"))
	require.Equal(t, Unknown, B.Status("molC"))
}

func TestLoadBookErrors(t *testing.T) {
	_, err := LoadBook(context.Background(), "s3://", "gs://bucket")
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 2)
}
