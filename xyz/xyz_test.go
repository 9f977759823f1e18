/*
 * xyz_test.go, part of qmbatch.
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

package xyz

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const twoMols = "2\nmolA\nH 0 0 0\nH 0 0 1\n1\nmolB\nO 0 0 0\n"

func TestRead(t *testing.T) {
	recs, err := Read(strings.NewReader(twoMols))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.Equal(t, "molA", recs[0].ID)
	require.Equal(t, 2, recs[0].Natoms)
	require.Equal(t, []string{"H 0 0 0", "H 0 0 1"}, recs[0].Coords)
	require.Equal(t, 4, recs[0].Lines())

	require.Equal(t, "molB", recs[1].ID)
	require.Equal(t, []string{"O 0 0 0"}, recs[1].Coords)
}

func TestReadZeroAtoms(t *testing.T) {
	recs, err := Read(strings.NewReader("0\nempty\n1\nX\nHe 1 2 3\n"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, 0, recs[0].Natoms)
	require.Empty(t, recs[0].Coords)
	require.Equal(t, "X", recs[1].ID)
}

func TestReadEmpty(t *testing.T) {
	recs, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestReadMalformed(t *testing.T) {
	cases := map[string]string{
		"not a number":      "two\nmolA\nH 0 0 0\nH 0 0 1\n",
		"negative count":    "-1\nmolA\n",
		"missing id":        "1\n",
		"short coordinates": "3\nmolA\nH 0 0 0\nH 0 0 1\n",
		"trailing garbage":  twoMols + "\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformedRecord), err.Error())
			var xerr Error
			require.True(t, errors.As(err, &xerr))
			require.True(t, xerr.Critical())
		})
	}
}

func TestReaderNext(t *testing.T) {
	r := NewReader(strings.NewReader(twoMols), "two.xyz")
	a, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "molA", a.ID)
	require.Equal(t, 4, r.Line())
	b, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "molB", b.ID)
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
}

func TestMalformedErrorNamesFile(t *testing.T) {
	r := NewReader(strings.NewReader("2\nmolA\nH 0 0 0\n"), "short.xyz")
	_, err := r.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), "short.xyz")
	require.Contains(t, err.Error(), "molA")
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		twoMols,
		"",
		"  3 \n  spaced id  \nC 0 0 0\r\nH 1 0 0\r\nH 0 1 0\r\n",
		"1\nlast\nN 0 0 0", //no final newline
	}
	for _, in := range inputs {
		recs, err := Read(strings.NewReader(in))
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, recs...))
		require.Equal(t, in, buf.String())
	}
}

func TestWriteTerminatesInnerRecords(t *testing.T) {
	recs, err := Read(strings.NewReader("1\nlast\nN 0 0 0"))
	require.NoError(t, err)
	first, err := Read(strings.NewReader("1\nfirst\nO 0 0 0\n"))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, recs[0], first[0]))
	require.Equal(t, "1\nlast\nN 0 0 0\n1\nfirst\nO 0 0 0\n", buf.String())
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("water", []string{"O 0 0 0", "H 0 0 1", "H 0 1 0"})
	require.NoError(t, r.Corrupted())
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	require.Equal(t, "3\nwater\nO 0 0 0\nH 0 0 1\nH 0 1 0\n", buf.String())

	r.Natoms = 4
	require.Error(t, r.Corrupted())
	require.True(t, errors.Is(r.Corrupted(), ErrCorruptedRecord))
	require.False(t, errors.Is(r.Corrupted(), ErrMalformedRecord), "a bad record in memory is not a framing error")
	require.Error(t, Write(&buf, r))
}

func TestReadFileTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.xyz")
	require.NoError(t, os.WriteFile(path, []byte("3\nmolA\nH 0 0 0\n"), 0o644))
	_, err := ReadFile(path)
	require.True(t, errors.Is(err, ErrMalformedRecord))
	require.False(t, errors.Is(err, ErrCorruptedRecord))
	var xerr Error
	require.True(t, errors.As(err, &xerr))
	require.Equal(t, []string{"Next", "ReadFile"}, xerr.Trace())
	require.Contains(t, err.Error(), path)
}

func TestFilesCompressed(t *testing.T) {
	dir := t.TempDir()
	recs, err := Read(strings.NewReader(twoMols))
	require.NoError(t, err)
	for _, name := range []string{"plain.xyz", "packed.xyz.gz", "packed.xyz.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, recs...))
		back, err := ReadFile(path)
		require.NoError(t, err, name)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, back...))
		require.Equal(t, twoMols, buf.String(), name)
	}
}

func TestBase(t *testing.T) {
	require.Equal(t, "file_01", Base("main_dir_001/subdir_01/file_01.xyz"))
	require.Equal(t, "file_01", Base("file_01.xyz.zst"))
	require.Equal(t, "data", Base("/tmp/data.xyz.gz"))
	require.Equal(t, "noext", Base("noext"))
}
