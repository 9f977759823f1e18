/*
 * plan.go, part of qmbatch.
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

// Package split partitions a multi-record XYZ dataset into a two-level directory
// tree of balanced leaf files.
package split

import (
	"errors"
	"fmt"
)

// ErrShape is returned for partition shapes with less than one group or subgroup.
var ErrShape = errors.New("invalid partition shape")

// Plan describes how Total records are spread over Primary groups of Sub
// subgroups each. Leaves are enumerated primary-major, subgroup-minor, and the
// first Remainder leaves get one record more than the others.
type Plan struct {
	Total     int
	Primary   int
	Sub       int
	Base      int
	Remainder int
}

// NewPlan returns the plan for total records over primary*sub leaves.
func NewPlan(total, primary, sub int) (Plan, error) {
	if primary < 1 || sub < 1 {
		return Plan{}, fmt.Errorf("%w: %d groups of %d subgroups", ErrShape, primary, sub)
	}
	if total < 0 {
		return Plan{}, fmt.Errorf("%w: negative record count %d", ErrShape, total)
	}
	leaves := primary * sub
	return Plan{
		Total:     total,
		Primary:   primary,
		Sub:       sub,
		Base:      total / leaves,
		Remainder: total % leaves,
	}, nil
}

// Leaves returns the number of leaves in the full tree.
func (P Plan) Leaves() int {
	return P.Primary * P.Sub
}

// Size returns the number of records for the leaf with 0-based
// enumeration index k.
func (P Plan) Size(k int) int {
	if k < 0 || k >= P.Leaves() {
		return 0
	}
	if k < P.Remainder {
		return P.Base + 1
	}
	return P.Base
}

// Visited returns how many leaves get written. The enumeration stops as soon as
// every record has been placed, but the first leaf is always written, so an
// empty dataset still gives one (empty) leaf.
func (P Plan) Visited() int {
	if P.Base > 0 {
		return P.Leaves()
	}
	return max(P.Remainder, 1)
}

// Sizes returns the record count of each visited leaf, in enumeration order.
func (P Plan) Sizes() []int {
	s := make([]int, P.Visited())
	for k := range s {
		s[k] = P.Size(k)
	}
	return s
}

// Position converts a 0-based enumeration index into 1-based primary and
// subgroup numbers.
func (P Plan) Position(k int) (primary, sub int) {
	return k/P.Sub + 1, k%P.Sub + 1
}
