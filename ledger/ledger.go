/*
 * ledger.go, part of qmbatch.
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

// Package ledger gives read-only access to the tables of molecule IDs that
// previous runs settled, either as processed or as failed. The tables are
// curated outside of qmbatch; nothing here writes to them.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"
)

// Status is what the ledgers say about a molecule.
type Status int

const (
	Unknown Status = iota
	Processed
	Errored
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Ledger looks up the status of a molecule ID.
type Ledger interface {
	Status(id string) Status
}

// Book is a Ledger backed by a set of processed IDs and a set of errored IDs.
// An ID in both sets counts as processed.
type Book struct {
	processed mapset.Set[string]
	errored   mapset.Set[string]
}

// NewBook returns a Book with the given IDs.
func NewBook(processed, errored []string) *Book {
	return &Book{
		processed: mapset.NewThreadUnsafeSet(processed...),
		errored:   mapset.NewThreadUnsafeSet(errored...),
	}
}

func (B *Book) Status(id string) Status {
	switch {
	case B.processed.Contains(id):
		return Processed
	case B.errored.Contains(id):
		return Errored
	}
	return Unknown
}

// Len returns the number of processed and errored IDs.
func (B *Book) Len() (processed, errored int) {
	return B.processed.Cardinality(), B.errored.Cardinality()
}

// ReadIDs reads a ledger table: CSV with a header row, and the ID in the first
// column of every following row. Blank rows are skipped.
func ReadIDs(r io.Reader) (mapset.Set[string], error) {
	ids := mapset.NewThreadUnsafeSet[string]()
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(row) == 0 {
			continue
		}
		if id := strings.TrimSpace(row[0]); id != "" {
			ids.Add(id)
		}
	}
}

// Load reads the ledger table at location, which is either a local path or a
// bucket URL (file://, s3://, gs://). A table that doesn't exist, like an
// empty location, gives an empty set.
func Load(ctx context.Context, location string) (mapset.Set[string], error) {
	if location == "" {
		return mapset.NewThreadUnsafeSet[string](), nil
	}
	if !strings.Contains(location, "://") {
		return loadFile(location)
	}
	bucketURL, key, err := splitURL(location)
	if err != nil {
		return nil, err
	}
	if dir, ok := localDir(bucketURL); ok {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			slog.Warn("Ledger directory not found, assuming empty", slog.String("location", location))
			return mapset.NewThreadUnsafeSet[string](), nil
		}
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()
	r, err := bucket.NewReader(ctx, key, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		slog.Warn("Ledger table not found, assuming empty", slog.String("location", location))
		return mapset.NewThreadUnsafeSet[string](), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", location, err)
	}
	defer r.Close()
	ids, err := ReadIDs(r)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", location, err)
	}
	return ids, nil
}

func loadFile(name string) (mapset.Set[string], error) {
	f, err := os.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Ledger table not found, assuming empty", slog.String("location", name))
		return mapset.NewThreadUnsafeSet[string](), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ids, err := ReadIDs(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", name, err)
	}
	return ids, nil
}

// localDir returns the directory a file:// bucket URL points to.
func localDir(bucketURL string) (string, bool) {
	u, err := url.Parse(bucketURL)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// splitURL separates a blob URL into the bucket URL and the object key. For
// file:// URLs the bucket is the directory holding the file.
func splitURL(location string) (bucketURL, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("parsing ledger location %q: %w", location, err)
	}
	if u.Scheme == "file" {
		dir, file := path.Split(u.Path)
		if file == "" {
			return "", "", fmt.Errorf("ledger location %q names no file", location)
		}
		b := url.URL{Scheme: "file", Path: dir, RawQuery: u.RawQuery}
		return b.String(), file, nil
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("ledger location %q needs a bucket and a key", location)
	}
	b := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	return b.String(), key, nil
}

// LoadBook loads the processed and errored tables. Failures of either load are
// reported together.
func LoadBook(ctx context.Context, processed, errored string) (*Book, error) {
	var errs *multierror.Error
	p, err := Load(ctx, processed)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("processed ledger: %w", err))
	}
	e, err := Load(ctx, errored)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("errored ledger: %w", err))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Book{processed: p, errored: e}, nil
}
