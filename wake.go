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

// This file implements closed-form estimates for the strong-bubble
// (blowout) regime, after V. Lebedev, A. Burov and S. Nagaitsev,
// "Efficiency versus instability in plasma accelerators",
// Phys. Rev. Accel. Beams 20, 121301 (2017). The estimates are valid
// when k_p·r_b,max is well above one and the drive bunch charge
// satisfies N/(n·L³) ≳ 1. ξ = ct − z measures distance back from the
// front of the bubble.

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// MaxRadius returns the maximum radius of the plasma bubble [m] for a
// drive beam of total length beamLength [m] and numParticles electrons
// in a plasma of density n [m⁻³].
func MaxRadius(n, beamLength, numParticles float64) float64 {
	return math.Pow(2, 7.0/8.0) *
		math.Pow(numParticles/(math.Pi*n), 3.0/8.0) /
		math.Pow(beamLength, 1.0/8.0)
}

// BubbleHalfWidth returns the longitudinal half width ξ_b of the
// bubble [m], about 0.847 times the maximum radius. The exact
// coefficient is (√2/4)·B(3/4, 1/2).
func BubbleHalfWidth(rbMax float64) float64 {
	beta := math.Gamma(0.75) * math.Gamma(0.5) / math.Gamma(1.25)
	return math.Sqrt2 / 4 * beta * rbMax
}

// LocalRadius returns the bubble boundary radius at ξ [m]. The radius
// rises from zero at the front of the bubble to rbMax at the half
// width and falls back to zero at 2ξ_b; outside that range the result
// is zero.
func LocalRadius(xi, rbMax float64) float64 {
	xiB := BubbleHalfWidth(rbMax)
	u := (xi - xiB) / xiB
	arg := 1 - u*u
	if arg <= 0 {
		return 0
	}
	return rbMax * math.Pow(arg, 1.0/3.0)
}

// SlopeNoBeam returns |dr_b/dξ| at local radius rb in the back of the
// bubble, where no drive beam is present. The positive root is taken.
func SlopeNoBeam(rb, rbMax float64) float64 {
	ratio := rbMax / rb
	return math.Sqrt((ratio*ratio*ratio*ratio - 1) / 2)
}

// EzOnAxis returns the longitudinal electric field on the axis [V/m].
// The calculation is local; it depends only on the bubble radius and
// its slope with respect to ξ.
func EzOnAxis(n, rb, slope float64) float64 {
	return -ElementaryCharge * n / (2 * Epsilon0) * rb * slope
}

// EzOnAxisNoBeam returns the on-axis longitudinal field in the back of
// the bubble, with the slope taken from the no-beam boundary equation.
func EzOnAxisNoBeam(n, rb, rbMax float64) float64 {
	return EzOnAxis(n, rb, SlopeNoBeam(rb, rbMax))
}

// DecelField returns the decelerating field along the drive beam
// [V/m], approximately constant over the beam length.
func DecelField(n, beamLength, numParticles float64) float64 {
	return ElementaryCharge * numParticles /
		(2 * math.Pi * Epsilon0 * beamLength * beamLength)
}

// DrivePower returns the power transferred from the drive beam to the
// plasma [W].
func DrivePower(n, rbMax float64) float64 {
	r2 := rbMax * rbMax
	return math.Pi * ElementaryCharge * ElementaryCharge * LightSpeed *
		n * n * r2 * r2 / (16 * Epsilon0)
}

// Wake aggregates the strong-bubble estimates for a drive bunch in a
// given plasma.
type Wake struct {
	Plasma Plasma
	Drive  Bunch

	// BeamLength is the total length of the drive beam, taken as four
	// RMS lengths [m].
	BeamLength float64

	RbMax     float64 // maximum bubble radius [m]
	HalfWidth float64 // bubble half width ξ_b [m]
	Decel     float64 // decelerating field along the drive beam [V/m]
	Power     float64 // power transferred from beam to plasma [W]
}

// NewWake evaluates the strong-bubble model for the given plasma and
// drive bunch.
func NewWake(plasma Plasma, drive Bunch) *Wake {
	length := 4 * drive.SigmaZ
	num := drive.NumParticles()
	rbMax := MaxRadius(plasma.Density, length, num)
	return &Wake{
		Plasma:     plasma,
		Drive:      drive,
		BeamLength: length,
		RbMax:      rbMax,
		HalfWidth:  BubbleHalfWidth(rbMax),
		Decel:      DecelField(plasma.Density, length, num),
		Power:      DrivePower(plasma.Density, rbMax),
	}
}

// RadiusCheck returns k_p·r_b,max, which must be well above one for
// the strong-bubble estimates to hold.
func (w *Wake) RadiusCheck() float64 {
	return w.Plasma.WaveNumber * w.RbMax
}

// ChargeCheck returns N/(n·L³), which must be of order one or larger
// for the strong-bubble estimates to hold.
func (w *Wake) ChargeCheck() float64 {
	return w.Drive.NumParticles() /
		(w.Plasma.Density * w.BeamLength * w.BeamLength * w.BeamLength)
}

// Profile holds the on-axis longitudinal field and the bubble boundary
// sampled over the length of the bubble.
type Profile struct {
	Xi []float64 // ξ = ct − z [m]
	Ez []float64 // on-axis longitudinal field [V/m]
	Rb []float64 // bubble boundary radius [m]
}

// Profile samples the wake at the given number of points over
// 0 ≤ ξ ≤ 1.99ξ_b. Within the beam length the field is the
// decelerating plateau; behind the beam it follows the no-beam
// boundary equation.
func (w *Wake) Profile(samples int) *Profile {
	if samples < 2 {
		samples = 2
	}
	p := &Profile{
		Xi: make([]float64, samples),
		Ez: make([]float64, samples),
		Rb: make([]float64, samples),
	}
	xiMax := 1.99 * w.HalfWidth
	for i := 0; i < samples; i++ {
		xi := xiMax * float64(i) / float64(samples-1)
		p.Xi[i] = xi
		p.Rb[i] = LocalRadius(xi, w.RbMax)
		switch {
		case xi > 2*w.HalfWidth:
			p.Ez[i] = 0
		case xi < w.BeamLength:
			p.Ez[i] = w.Decel
		default:
			p.Ez[i] = EzOnAxisNoBeam(w.Plasma.Density, p.Rb[i], w.RbMax)
		}
	}
	return p
}

// Describe writes a human-readable table of the wake quantities.
func (w *Wake) Describe(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 2, 1, ' ', 0)
	rows := []struct {
		name  string
		value string
	}{
		{"drive beam length [µm]", fmt.Sprintf("%.6g", w.BeamLength*1e6)},
		{"drive beam electrons", fmt.Sprintf("%.6g", w.Drive.NumParticles())},
		{"max bubble radius [µm]", fmt.Sprintf("%.6g", w.RbMax*1e6)},
		{"bubble half width [µm]", fmt.Sprintf("%.6g", w.HalfWidth*1e6)},
		{"decelerating field [GV/m]", fmt.Sprintf("%.6g", w.Decel*1e-9)},
		{"beam-plasma power [W]", fmt.Sprintf("%.6g", w.Power)},
		{"k_p·r_b,max (want ≫1)", fmt.Sprintf("%.4g", w.RadiusCheck())},
		{"N/(n·L³) (want ≳1)", fmt.Sprintf("%.4g", w.ChargeCheck())},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.name, r.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
