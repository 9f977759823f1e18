/*
 * files.go, part of qmbatch.
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Base returns name without its directory, and without its extension and any
// compression suffix, so "a/b/file_01.xyz.zst" gives "file_01".
func Base(name string) string {
	b := filepath.Base(trimCompression(name))
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func trimCompression(name string) string {
	switch filepath.Ext(name) {
	case ".gz", ".zst":
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error { z.d.Close(); return nil }

// Open opens an XYZ dataset for reading. Files ending in .gz or .zst are
// decompressed on the fly.
func Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(name) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", name, err)
		}
		return readCloser{gz, []io.Closer{gz, f}}, nil
	case ".zst":
		d, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", name, err)
		}
		return readCloser{d, []io.Closer{zstdCloser{d}, f}}, nil
	}
	return f, nil
}

// ReadFile reads all the records in the file name.
func ReadFile(name string) ([]*Record, error) {
	f, err := Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := readAll(NewReader(f, name))
	var xerr Error
	if errors.As(err, &xerr) {
		xerr.Decorate("ReadFile")
		return nil, xerr
	}
	return recs, err
}

// WriteFile writes the records to the file name, which is created or truncated.
// As with Open, a .gz or .zst suffix selects compression.
func WriteFile(name string, recs ...*Record) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var w io.WriteCloser
	switch filepath.Ext(name) {
	case ".gz":
		w = gzip.NewWriter(f)
	case ".zst":
		w, err = zstd.NewWriter(f)
		if err != nil {
			return err
		}
	}
	if w == nil {
		buf := bufio.NewWriter(f)
		if err = Write(buf, recs...); err != nil {
			return err
		}
		return buf.Flush()
	}
	if err = Write(w, recs...); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
