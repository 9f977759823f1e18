/*
 * split_test.go, part of qmbatch.
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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmera/qmbatch/xyz"
)

func TestPlanScenario(t *testing.T) {
	p, err := NewPlan(10, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 1, p.Base)
	require.Equal(t, 4, p.Remainder)
	require.Equal(t, []int{2, 2, 2, 2, 1, 1}, p.Sizes())
}

func TestPlanConservation(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for primary := 1; primary <= 6; primary++ {
			for sub := 1; sub <= 4; sub++ {
				p, err := NewPlan(total, primary, sub)
				require.NoError(t, err)
				sum, lo, hi := 0, total, 0
				for k := 0; k < p.Leaves(); k++ {
					n := p.Size(k)
					sum += n
					lo = min(lo, n)
					hi = max(hi, n)
				}
				require.Equal(t, total, sum, "total %d shape %dx%d", total, primary, sub)
				require.LessOrEqual(t, hi-lo, 1)
				vsum := 0
				for _, n := range p.Sizes() {
					vsum += n
				}
				require.Equal(t, total, vsum)
			}
		}
	}
}

func TestPlanFewRecords(t *testing.T) {
	p, err := NewPlan(3, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 0, p.Base)
	require.Equal(t, []int{1, 1, 1}, p.Sizes())

	p, err = NewPlan(0, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []int{0}, p.Sizes())
}

func TestPlanBadShape(t *testing.T) {
	_, err := NewPlan(10, 0, 2)
	require.ErrorIs(t, err, ErrShape)
	_, err = NewPlan(10, 2, 0)
	require.ErrorIs(t, err, ErrShape)
	_, err = NewPlan(-1, 2, 2)
	require.ErrorIs(t, err, ErrShape)
}

func TestPlanPosition(t *testing.T) {
	p, _ := NewPlan(10, 3, 2)
	pr, s := p.Position(0)
	require.Equal(t, [2]int{1, 1}, [2]int{pr, s})
	pr, s = p.Position(3)
	require.Equal(t, [2]int{2, 2}, [2]int{pr, s})
	pr, s = p.Position(5)
	require.Equal(t, [2]int{3, 2}, [2]int{pr, s})
}

func dataset(t *testing.T, n int) []*xyz.Record {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "1\nmol%03d\nH 0 0 %d\n", i, i)
	}
	recs, err := xyz.Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	return recs
}

func leafIDs(t *testing.T, path string) []string {
	t.Helper()
	recs, err := xyz.ReadFile(path)
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestSplit(t *testing.T) {
	root := t.TempDir()
	recs := dataset(t, 10)
	plan, err := NewPlan(len(recs), 3, 2)
	require.NoError(t, err)

	leaves, err := New(root).Split(context.Background(), recs, plan)
	require.NoError(t, err)
	require.Len(t, leaves, 6)

	var got []string
	for i, l := range leaves {
		require.Equal(t, plan.Sizes()[i], l.Count)
		ids := leafIDs(t, l.Path)
		require.Len(t, ids, l.Count)
		got = append(got, ids...)
	}
	for i, id := range got {
		require.Equal(t, fmt.Sprintf("mol%03d", i), id)
	}
	require.Equal(t, filepath.Join(root, "main_dir_002", "subdir_02", "file_02.xyz"), leaves[3].Path)
}

func TestSplitStopsEarly(t *testing.T) {
	root := t.TempDir()
	recs := dataset(t, 3)
	plan, err := NewPlan(len(recs), 4, 2)
	require.NoError(t, err)

	leaves, err := New(root).Split(context.Background(), recs, plan)
	require.NoError(t, err)
	require.Len(t, leaves, 3)
	_, err = os.Stat(filepath.Join(root, "main_dir_003"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(Layout{root}.SubDir(2, 2))
	require.True(t, os.IsNotExist(err))
}

func TestSplitEmptyDataset(t *testing.T) {
	root := t.TempDir()
	plan, err := NewPlan(0, 2, 2)
	require.NoError(t, err)
	leaves, err := New(root).Split(context.Background(), nil, plan)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	data, err := os.ReadFile(leaves[0].Path)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestSplitPlanMismatch(t *testing.T) {
	plan, _ := NewPlan(5, 1, 1)
	_, err := New(t.TempDir()).Split(context.Background(), dataset(t, 4), plan)
	require.Error(t, err)
}

func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestSplitDeterministic(t *testing.T) {
	root := t.TempDir()
	recs := dataset(t, 11)
	ctx := context.Background()
	S := New(root)

	plan, _ := NewPlan(len(recs), 2, 3)
	_, err := S.Split(ctx, recs, plan)
	require.NoError(t, err)
	first := snapshot(t, root)

	//a differently shaped split in between must leave no trace in the groups
	//the second split reuses.
	other, _ := NewPlan(len(recs), 2, 5)
	_, err = S.Split(ctx, recs, other)
	require.NoError(t, err)

	_, err = S.Split(ctx, recs, plan)
	require.NoError(t, err)
	require.Equal(t, first, snapshot(t, root))
}

func TestSplitKeepsLooseFiles(t *testing.T) {
	root := t.TempDir()
	dir := Layout{root}.PrimaryDir(1)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir_09"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	plan, _ := NewPlan(2, 1, 1)
	_, err := New(root).Split(context.Background(), dataset(t, 2), plan)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "subdir_09"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
}

func TestSplitPrune(t *testing.T) {
	root := t.TempDir()
	recs := dataset(t, 8)
	ctx := context.Background()

	big, _ := NewPlan(len(recs), 4, 2)
	_, err := New(root).Split(ctx, recs, big)
	require.NoError(t, err)

	small, _ := NewPlan(len(recs), 2, 2)
	_, err = New(root).Split(ctx, recs, small)
	require.NoError(t, err)
	_, err = os.Stat(Layout{root}.PrimaryDir(4))
	require.NoError(t, err, "groups are only pruned on request")

	_, err = New(root, WithPrune(true)).Split(ctx, recs, small)
	require.NoError(t, err)
	for _, p := range []int{3, 4} {
		_, err = os.Stat(Layout{root}.PrimaryDir(p))
		require.True(t, os.IsNotExist(err))
	}
	_, err = os.Stat(Layout{root}.File(2, 2))
	require.NoError(t, err)
}

func TestSplitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan, _ := NewPlan(4, 2, 2)
	_, err := New(t.TempDir()).Split(ctx, dataset(t, 4), plan)
	require.ErrorIs(t, err, context.Canceled)
}
