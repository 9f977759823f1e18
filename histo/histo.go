/*
 * histo.go, part of qmbatch.
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

package histo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Data is a histogram over fixed dividers. Values outside the first and last
// dividers are not counted.
type Data struct {
	name       string
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

//String prints a -hopefully- pretty string representation of
//the histogram. The representation uses 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("%s, Normalized: %v, TotalData: %d\n", D.name, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

// NewData returns a new histogram from the dividers and rawdata given.
// rawdata can be nil, in which case an empty histogram is created. It panics
// if there are fewer than 2 dividers.
func NewData(name string, dividers []float64, rawdata []float64) *Data {
	if len(dividers) < 2 {
		panic("qmbatch/histo.NewData: at least 2 dividers are needed")
	}
	d := new(Data)
	d.name = name
	//copied to avoid somebody changing it from outside
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	return d
}

// Dividers returns n+1 evenly spaced dividers covering all of data. The last
// divider is nudged up so the maximum falls in the last bin. Empty data or
// n < 1 give nil.
func Dividers(data []float64, n int) []float64 {
	if len(data) == 0 || n < 1 {
		return nil
	}
	lo, hi := floats.Min(data), floats.Max(data)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	hi = math.Nextafter(hi, math.Inf(1))
	d := make([]float64, n+1)
	return floats.Span(d, lo, hi)
}

// Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

// Normalize divides every bin by the number of data points counted, so the
// bins hold fractions. Empty or already normalized histograms are left alone.
func (D *Data) Normalize() {
	if D.total <= 0 || D.normalized {
		return
	}
	D.normalized = true
	floats.Scale(1/float64(D.total), D.histo)
}

// Total returns the number of data points counted.
func (D *Data) Total() int {
	return D.total
}

func (D *Data) View() []float64 {
	return D.histo
}

func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

// ReHisto replaces the contents of the histogram with the counts of rawdata over
// dividers. rawdata is sorted in place.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	sort.Float64s(rawdata)
	//stat.Histogram panics instead of omitting the values that are off limits
	//so we remove them here before the call.
	maxi := sort.SearchFloat64s(rawdata, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(rawdata, dividers[0])
	rawdata = rawdata[mini:maxi]
	D.dividers = dividers
	D.normalized = false
	D.total = len(rawdata) //as this could have been modified
	D.histo = stat.Histogram(nil, dividers, rawdata, nil)
}
