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
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Spectrum holds the spatial wavelength content of an equally spaced
// field profile.
type Spectrum struct {
	Wavelengths []float64 // wavelength per bin [m], longest first
	Power       []float64 // spectral power per bin
	Peak        float64   // wavelength of the strongest bin [m]
}

// FieldSpectrum computes the spatial spectrum of the given samples
// with spacing dz. The mean is removed before transforming, and the
// zero-frequency bin is excluded, so a constant offset does not
// register as a peak.
func FieldSpectrum(samples []float64, dz float64) (*Spectrum, error) {
	n := len(samples)
	if n < 4 {
		return nil, fmt.Errorf("pwfa: spectrum needs at least 4 samples, got %d", n)
	}
	if dz <= 0 {
		return nil, fmt.Errorf("pwfa: sample spacing %g must be positive", dz)
	}

	mean := floats.Sum(samples) / float64(n)
	detrended := make([]float64, n)
	for i, v := range samples {
		detrended[i] = v - mean
	}
	coeffs := fft.FFTReal(detrended)

	length := float64(n) * dz
	s := &Spectrum{
		Wavelengths: make([]float64, n/2),
		Power:       make([]float64, n/2),
	}
	best := 0
	for k := 1; k <= n/2; k++ {
		a := cmplx.Abs(coeffs[k])
		s.Wavelengths[k-1] = length / float64(k)
		s.Power[k-1] = a * a
		if s.Power[k-1] > s.Power[best] {
			best = k - 1
		}
	}
	s.Peak = s.Wavelengths[best]
	return s, nil
}

// MeasureWavelength estimates the plasma wavelength in a dump from
// the spatial spectrum of its on-axis longitudinal field.
func (d *Dump) MeasureWavelength() (float64, error) {
	ez, err := d.OnAxis("Ez")
	if err != nil {
		return 0, err
	}
	s, err := FieldSpectrum(ez, d.Dz)
	if err != nil {
		return 0, err
	}
	return s.Peak, nil
}
