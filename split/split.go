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

package split

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmera/qmbatch/xyz"
)

const primaryPrefix = "main_dir_"

// Layout names the directories and files of a partition tree under Root.
type Layout struct {
	Root string
}

// PrimaryDir returns the directory of the 1-based primary group p.
func (L Layout) PrimaryDir(p int) string {
	return filepath.Join(L.Root, fmt.Sprintf("%s%03d", primaryPrefix, p))
}

// SubDir returns the directory of subgroup s of primary group p.
func (L Layout) SubDir(p, s int) string {
	return filepath.Join(L.PrimaryDir(p), fmt.Sprintf("subdir_%02d", s))
}

// File returns the leaf dataset file of subgroup s of primary group p.
func (L Layout) File(p, s int) string {
	return filepath.Join(L.SubDir(p, s), fmt.Sprintf("file_%02d.xyz", s))
}

// Leaf is one written leaf file.
type Leaf struct {
	Index   int //0-based enumeration index
	Primary int
	Sub     int
	Path    string
	Count   int
}

// Splitter writes partition trees.
type Splitter struct {
	layout Layout
	prune  bool
	log    *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithPrune makes Split remove primary group directories numbered beyond the
// last group it writes, left over from splitting with a bigger shape.
func WithPrune(prune bool) Option {
	return func(S *Splitter) { S.prune = prune }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(S *Splitter) { S.log = l }
}

// New returns a Splitter that writes under root.
func New(root string, opts ...Option) *Splitter {
	S := &Splitter{layout: Layout{Root: root}, log: slog.Default()}
	for _, o := range opts {
		o(S)
	}
	return S
}

// Layout returns the splitter's layout.
func (S *Splitter) Layout() Layout {
	return S.layout
}

// Split writes recs to leaf files following plan, consuming the records in order.
// Each primary group directory is emptied of subdirectories before it is used,
// so repeated splits of the same data give identical trees.
func (S *Splitter) Split(ctx context.Context, recs []*xyz.Record, plan Plan) ([]Leaf, error) {
	if plan.Total != len(recs) {
		return nil, fmt.Errorf("plan is for %d records, got %d", plan.Total, len(recs))
	}
	leaves := make([]Leaf, 0, plan.Visited())
	consumed := 0
	k := 0
	last := 0
primaries:
	for p := 1; p <= plan.Primary; p++ {
		if err := ctx.Err(); err != nil {
			return leaves, err
		}
		if err := S.resetPrimary(p); err != nil {
			return leaves, err
		}
		last = p
		for s := 1; s <= plan.Sub; s++ {
			n := min(plan.Size(k), len(recs)-consumed)
			leaf, err := S.writeLeaf(k, p, s, recs[consumed:consumed+n])
			if err != nil {
				return leaves, err
			}
			leaves = append(leaves, leaf)
			consumed += n
			k++
			if consumed >= len(recs) {
				break primaries
			}
		}
	}
	if S.prune {
		if err := S.pruneBeyond(last); err != nil {
			return leaves, err
		}
	}
	return leaves, nil
}

func (S *Splitter) writeLeaf(k, p, s int, recs []*xyz.Record) (Leaf, error) {
	if err := os.MkdirAll(S.layout.SubDir(p, s), 0o755); err != nil {
		return Leaf{}, fmt.Errorf("creating leaf directory: %w", err)
	}
	path := S.layout.File(p, s)
	if err := xyz.WriteFile(path, recs...); err != nil {
		return Leaf{}, fmt.Errorf("writing leaf %s: %w", path, err)
	}
	S.log.Debug("Wrote leaf", slog.String("path", path), slog.Int("records", len(recs)))
	return Leaf{Index: k, Primary: p, Sub: s, Path: path, Count: len(recs)}, nil
}

// resetPrimary removes every subdirectory of primary group p, if the group
// exists, and (re)creates the group directory.
func (S *Splitter) resetPrimary(p int) error {
	dir := S.layout.PrimaryDir(p)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("removing stale subgroup: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func (S *Splitter) pruneBeyond(last int) error {
	root := S.layout.Root
	if root == "" {
		root = "."
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	for _, e := range entries {
		num, ok := strings.CutPrefix(e.Name(), primaryPrefix)
		if !ok || !e.IsDir() {
			continue
		}
		p, err := strconv.Atoi(num)
		if err != nil || p <= last {
			continue
		}
		S.log.Info("Removing stale group", slog.String("dir", e.Name()))
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return fmt.Errorf("removing stale group %s: %w", e.Name(), err)
		}
	}
	return nil
}
