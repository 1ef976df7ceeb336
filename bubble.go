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
	"math"
)

// BubbleEquation describes the boundary r_b(ξ) of the plasma bubble
// behind a Gaussian drive bunch, for a sheath of finite width. All
// quantities are in plasma units: lengths in c/ω_p, the line density
// normalized to the plasma density. The boundary obeys
//
//	A(r)·r″ = λ(ξ)/r − C(r)·r − B(r)·r·(r′)²
//
// with the coefficients below.
type BubbleEquation struct {
	Delta   float64 // sheath width
	SigmaXi float64 // RMS length of the drive bunch
	NBeam   float64 // normalized drive bunch charge
}

// LineDensity returns the normalized line charge density λ(ξ) of the
// drive bunch, centered at ξ = 0.
func (e *BubbleEquation) LineDensity(xi float64) float64 {
	s2 := e.SigmaXi * e.SigmaXi
	return e.NBeam / math.Sqrt(2*math.Pi*s2) *
		math.Exp(-xi*xi/(2*s2))
}

// A returns the inertial coefficient of the boundary equation.
func (e *BubbleEquation) A(r float64) float64 {
	return 1 + r*r*(0.25+0.5*e.beta(r)+0.125*r*e.betaPrime(r))
}

// B returns the coefficient of the r·(r′)² term.
func (e *BubbleEquation) B(r float64) float64 {
	return 0.5 + 0.75*(e.beta(r)+r*e.betaPrime(r)) +
		0.125*r*r*e.betaDblPrime(r)
}

// C returns the coefficient of the restoring term.
func (e *BubbleEquation) C(r float64) float64 {
	d := 1 + 0.25*e.beta(r)*r*r
	return 0.25 * (1 + 1/(d*d))
}

// The sheath enters through β(r) = f(a)·g(a) − 1 with a = 1 + δ/r,
// f = (a ln a)² and g = 1/(a²−1). The derivatives with respect to r
// go through the chain rule with da/dr = −δ/r² and d²a/dr² = 2δ/r³.

func (e *BubbleEquation) a(r float64) float64 { return 1 + e.Delta/r }

func (e *BubbleEquation) f(r float64) float64 {
	al := e.a(r) * math.Log(e.a(r))
	return al * al
}

func (e *BubbleEquation) g(r float64) float64 {
	a := e.a(r)
	return 1 / (a*a - 1)
}

// df and d2f are the first and second derivatives of f with respect
// to a, and likewise dg and d2g for g; d2g = 2g²(4a²g − 1).

func (e *BubbleEquation) df(r float64) float64 {
	f := e.f(r)
	return 2 * (math.Sqrt(f) + f/e.a(r))
}

func (e *BubbleEquation) d2f(r float64) float64 {
	a := e.a(r)
	f := e.f(r)
	return e.df(r)*(1/math.Sqrt(f)+2/a) - 2*f/(a*a)
}

func (e *BubbleEquation) dg(r float64) float64 {
	g := e.g(r)
	return -2 * e.a(r) * g * g
}

func (e *BubbleEquation) d2g(r float64) float64 {
	a := e.a(r)
	g := e.g(r)
	return 2 * g * g * (4*a*a*g - 1)
}

func (e *BubbleEquation) beta(r float64) float64 {
	return e.f(r)*e.g(r) - 1
}

func (e *BubbleEquation) betaPrime(r float64) float64 {
	dadr := -e.Delta / (r * r)
	return (e.df(r)*e.g(r) + e.f(r)*e.dg(r)) * dadr
}

func (e *BubbleEquation) betaDblPrime(r float64) float64 {
	dadr := -e.Delta / (r * r)
	d2adr2 := 2 * e.Delta / (r * r * r)
	dBetaDa := e.df(r)*e.g(r) + e.f(r)*e.dg(r)
	d2BetaDa2 := e.d2f(r)*e.g(r) + 2*e.df(r)*e.dg(r) + e.f(r)*e.d2g(r)
	return d2BetaDa2*dadr*dadr + dBetaDa*d2adr2
}

// derivative returns d[r, u]/dξ for the first-order system r′ = u,
// u′ = (λ(ξ)/r − C·r − B·r·u²)/A.
func (e *BubbleEquation) derivative(xi float64, s [2]float64) [2]float64 {
	r, u := s[0], s[1]
	return [2]float64{
		u,
		(e.LineDensity(xi)/r - e.C(r)*r - e.B(r)*r*u*u) / e.A(r),
	}
}

// Integrate advances the bubble boundary across the given ξ grid from
// initial radius r0 at rest, using the classical fixed-step
// Runge-Kutta scheme. It returns the boundary radius and its slope at
// each grid point. The grid must be strictly increasing. Integration
// fails if the boundary collapses to the axis, where the equation is
// singular.
func (e *BubbleEquation) Integrate(xi []float64, r0 float64) (rb, slope []float64, err error) {
	if len(xi) < 2 {
		return nil, nil, fmt.Errorf("pwfa: ξ grid needs at least 2 points, got %d", len(xi))
	}
	if r0 <= 0 {
		return nil, nil, fmt.Errorf("pwfa: initial bubble radius %g must be positive", r0)
	}
	rb = make([]float64, len(xi))
	slope = make([]float64, len(xi))
	s := [2]float64{r0, 0}
	rb[0], slope[0] = s[0], s[1]
	for i := 1; i < len(xi); i++ {
		h := xi[i] - xi[i-1]
		if h <= 0 {
			return nil, nil, fmt.Errorf("pwfa: ξ grid must be strictly increasing at index %d", i)
		}
		x := xi[i-1]
		k1 := e.derivative(x, s)
		k2 := e.derivative(x+h/2, [2]float64{s[0] + h/2*k1[0], s[1] + h/2*k1[1]})
		k3 := e.derivative(x+h/2, [2]float64{s[0] + h/2*k2[0], s[1] + h/2*k2[1]})
		k4 := e.derivative(x+h, [2]float64{s[0] + h*k3[0], s[1] + h*k3[1]})
		s[0] += h / 6 * (k1[0] + 2*k2[0] + 2*k3[0] + k4[0])
		s[1] += h / 6 * (k1[1] + 2*k2[1] + 2*k3[1] + k4[1])
		if !(s[0] > 0) || math.IsNaN(s[1]) {
			return nil, nil, fmt.Errorf("pwfa: bubble boundary collapsed at ξ=%g", xi[i])
		}
		rb[i], slope[i] = s[0], s[1]
	}
	return rb, slope, nil
}

// linspace returns n evenly spaced values covering [lo, hi].
func linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
