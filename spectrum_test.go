/*
Copyright © 2019 the PWFA authors.
This file is part of PWFA.

PWFA is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PWFA is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PWFA.  If not, see <http://www.gnu.org/licenses/>.
*/

package pwfa

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

// zerosWithRow returns a zero [nr, nz] array with its first radial
// row set to the given values.
func zerosWithRow(nr, nz int, row []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(nr, nz)
	for i, v := range row {
		a.Set(v, 0, i)
	}
	return a
}

// cosineSamples returns n samples of offset + amp·cos(2πz/wavelength)
// covering exactly periods wavelengths, and the sample spacing.
func cosineSamples(n, periods int, wavelength, amp, offset float64) ([]float64, float64) {
	dz := float64(periods) * wavelength / float64(n)
	out := make([]float64, n)
	for i := range out {
		z := float64(i) * dz
		out[i] = offset + amp*math.Cos(2*math.Pi*z/wavelength)
	}
	return out, dz
}

func TestFieldSpectrum(t *testing.T) {
	plasma := NewPlasma(4.0e22)
	samples, dz := cosineSamples(512, 4, plasma.Wavelength, 1.9e10, 0)

	s, err := FieldSpectrum(samples, dz)
	if err != nil {
		t.Fatal(err)
	}
	floatCompare(s.Peak, plasma.Wavelength, 1.0e-12, "peak wavelength", t)

	if len(s.Wavelengths) != 256 || len(s.Power) != 256 {
		t.Fatalf("bin count: have (%d, %d), want 256", len(s.Wavelengths), len(s.Power))
	}
	// Bins are ordered longest wavelength first.
	for i := 1; i < len(s.Wavelengths); i++ {
		if s.Wavelengths[i] >= s.Wavelengths[i-1] {
			t.Fatalf("wavelengths not decreasing at bin %d", i)
		}
	}
}

func TestFieldSpectrumOffset(t *testing.T) {
	// A constant offset much larger than the oscillation must not
	// move the peak.
	samples, dz := cosineSamples(512, 4, 1.66947e-4, 1, 50)
	s, err := FieldSpectrum(samples, dz)
	if err != nil {
		t.Fatal(err)
	}
	floatCompare(s.Peak, 1.66947e-4, 1.0e-12, "peak wavelength", t)
}

func TestFieldSpectrumMixed(t *testing.T) {
	// Two tones; the stronger one wins.
	const wavelength = 2.0e-4
	weak, dz := cosineSamples(512, 4, wavelength, 1, 0)
	strong, _ := cosineSamples(512, 28, wavelength*4.0/28.0, 3, 0)
	samples := make([]float64, len(weak))
	for i := range samples {
		samples[i] = weak[i] + strong[i]
	}
	s, err := FieldSpectrum(samples, dz)
	if err != nil {
		t.Fatal(err)
	}
	floatCompare(s.Peak, float64(512)*dz/28, 1.0e-12, "peak wavelength", t)
}

func TestFieldSpectrumErrors(t *testing.T) {
	if _, err := FieldSpectrum([]float64{1, 2, 3}, 1); err == nil {
		t.Error("expected error for too few samples")
	}
	if _, err := FieldSpectrum(make([]float64, 16), 0); err == nil {
		t.Error("expected error for zero spacing")
	}
}

func TestMeasureWavelength(t *testing.T) {
	// Build a dump whose on-axis field is a clean plasma oscillation.
	plasma := NewPlasma(4.0e22)
	samples, dz := cosineSamples(512, 4, plasma.Wavelength, 1.9e10, 0)

	d := &Dump{Nr: 2, Nz: 512, Dz: dz, Dr: 1.0e-6, Zmax: float64(512) * dz}
	ez := zerosWithRow(2, 512, samples)
	d.AddField("Ez", "longitudinal electric field", "V/m", ez)

	measured, err := d.MeasureWavelength()
	if err != nil {
		t.Fatal(err)
	}
	floatCompare(measured, plasma.Wavelength, 1.0e-12, "measured wavelength", t)

	if _, err := (&Dump{}).MeasureWavelength(); err == nil {
		t.Error("expected error for a dump without fields")
	}
}
