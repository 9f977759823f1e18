/*
 * report.go, part of qmbatch.
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

// Package report summarizes results tables: statistics on the energies and
// calculation times recovered, an energy histogram, and a plot of it.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg" // png, jpg and tiff output

	"github.com/rmera/qmbatch/batch"
	"github.com/rmera/qmbatch/histo"
)

// ErrNoEnergies is returned when there is nothing to histogram or plot.
var ErrNoEnergies = errors.New("qmbatch/report: no energies in the results")

// Stats describes a set of rows. Energy statistics are NaN when no row has an
// energy, and so are time statistics when no row has a time.
type Stats struct {
	Rows         int
	WithEnergy   int
	WithTime     int
	MeanEnergy   float64 //Hartree
	StdEnergy    float64
	MinEnergy    float64
	MaxEnergy    float64
	MeanMinutes  float64
	TotalMinutes float64
}

// Energies returns the energies present in rows, in row order.
func Energies(rows []batch.Row) []float64 {
	e := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Energy != nil {
			e = append(e, *r.Energy)
		}
	}
	return e
}

func minutes(rows []batch.Row) []float64 {
	m := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Minutes != nil {
			m = append(m, *r.Minutes)
		}
	}
	return m
}

// Summarize returns the statistics of rows.
func Summarize(rows []batch.Row) Stats {
	nan := math.NaN()
	s := Stats{Rows: len(rows), MeanEnergy: nan, StdEnergy: nan, MinEnergy: nan, MaxEnergy: nan, MeanMinutes: nan, TotalMinutes: nan}
	e := Energies(rows)
	s.WithEnergy = len(e)
	if len(e) > 0 {
		s.MeanEnergy, s.StdEnergy = stat.MeanStdDev(e, nil)
		s.MinEnergy = floats.Min(e)
		s.MaxEnergy = floats.Max(e)
	}
	m := minutes(rows)
	s.WithTime = len(m)
	if len(m) > 0 {
		s.MeanMinutes = stat.Mean(m, nil)
		s.TotalMinutes = floats.Sum(m)
	}
	return s
}

// EnergyHistogram counts the energies in rows over bins bins spanning all of them.
func EnergyHistogram(rows []batch.Row, bins int) (*histo.Data, error) {
	e := Energies(rows)
	if len(e) == 0 {
		return nil, ErrNoEnergies
	}
	if bins < 1 {
		return nil, fmt.Errorf("qmbatch/report: %d bins requested", bins)
	}
	return histo.NewData("energy", histo.Dividers(e, bins), e), nil
}

// Write writes a plain text report of rows to w, with an energy histogram of
// bins bins if there are energies to count. The histogram is given twice, as
// counts and as the fraction of molecules in each bin.
func Write(w io.Writer, name string, rows []batch.Row, bins int) error {
	s := Summarize(rows)
	fmt.Fprintf(w, "Results: %s\n", name)
	fmt.Fprintf(w, "Molecules: %d  with energy: %d  with time: %d\n", s.Rows, s.WithEnergy, s.WithTime)
	if s.WithEnergy > 0 {
		fmt.Fprintf(w, "Energy (Eh): mean %.6f  std %.6f  min %.6f  max %.6f\n", s.MeanEnergy, s.StdEnergy, s.MinEnergy, s.MaxEnergy)
	}
	if s.WithTime > 0 {
		fmt.Fprintf(w, "Time (min): mean %.2f  total %.2f\n", s.MeanMinutes, s.TotalMinutes)
	}
	if s.WithEnergy == 0 {
		_, err := fmt.Fprintln(w, "No energies")
		return err
	}
	h, err := EnergyHistogram(rows, bins)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", h); err != nil {
		return err
	}
	h.Normalize()
	_, err = fmt.Fprintf(w, "%s\n", h)
	return err
}

// PlotEnergies saves a histogram of the energies in rows as an image. The
// format is taken from the extension of path (png, svg, pdf...).
func PlotEnergies(rows []batch.Row, bins int, title, path string) error {
	e := Energies(rows)
	if len(e) == 0 {
		return ErrNoEnergies
	}
	if bins < 1 {
		return fmt.Errorf("qmbatch/report: %d bins requested", bins)
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "Energy (Eh)"
	p.Y.Label.Text = "Molecules"
	h, err := plotter.NewHist(plotter.Values(e), bins)
	if err != nil {
		return fmt.Errorf("qmbatch/report: %w", err)
	}
	p.Add(h, plotter.NewGrid())
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
