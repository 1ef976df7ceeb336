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
	"strings"
	"testing"
)

func floatCompare(have, want, tolerance float64, name string, t *testing.T) {
	t.Helper()
	if math.IsNaN(have) || math.IsInf(have, 0) {
		t.Errorf("%s: is %g", name, have)
		return
	}
	if math.Abs(have-want)/math.Abs(have+want)*2 > tolerance {
		t.Errorf("%s: want %g but have %g", name, want, have)
	}
}

func TestNewPlasma(t *testing.T) {
	const tolerance = 1.0e-3

	p := NewPlasma(4.0e22)
	floatCompare(p.OmegaP, 1.12829e13, tolerance, "OmegaP", t)
	floatCompare(p.WaveNumber, 3.76358e4, tolerance, "WaveNumber", t)
	floatCompare(p.Wavelength, 1.66947e-4, tolerance, "Wavelength", t)

	// λ = 2π/k must hold exactly.
	if w := 2 * math.Pi / p.WaveNumber; math.Abs(w-p.Wavelength)/w > 1.0e-14 {
		t.Errorf("wavelength %g is not 2π/wavenumber (%g)", p.Wavelength, w)
	}
	floatCompare(p.SkinDepth()*p.WaveNumber, 1, 1.0e-14, "SkinDepth", t)
}

func TestDerive(t *testing.T) {
	const tolerance = 1.0e-3

	cfg := DefaultConfig()
	p, err := cfg.Derive()
	if err != nil {
		t.Fatal(err)
	}

	floatCompare(p.Grid.DomainLength, 5.00841e-4, tolerance, "DomainLength", t)
	floatCompare(p.Grid.DomainRadius, 1.66947e-4, tolerance, "DomainRadius", t)
	floatCompare(p.Grid.Dz, 6.385e-7, tolerance, "Dz", t)
	floatCompare(p.Grid.Dr, 1.825e-7, tolerance, "Dr", t)

	if p.Grid.Nz != 784 {
		t.Errorf("Nz: want 784 but have %d", p.Grid.Nz)
	}
	if p.Grid.Nr != 915 {
		t.Errorf("Nr: want 915 but have %d", p.Grid.Nr)
	}
	floatCompare(p.Grid.Dt, 2.13090e-15, tolerance, "Dt", t)

	if p.Grid.Steps != 3201 {
		t.Errorf("Steps: want 3201 but have %d", p.Grid.Steps)
	}
	if p.Grid.DumpPeriod != 3200 {
		t.Errorf("DumpPeriod: want 3200 but have %d", p.Grid.DumpPeriod)
	}

	floatCompare(p.Ramp.Start, 5.00841e-4, tolerance, "Ramp.Start", t)
	floatCompare(p.Ramp.Length, 6.385e-5, tolerance, "Ramp.Length", t)
}

func TestDeriveInvariants(t *testing.T) {
	// The step count is one more than a multiple of the dump interval,
	// the spacing resolves the narrower extent, and the window crosses
	// the ramp, for a spread of densities and intervals.
	densities := []float64{1.0e21, 4.0e22, 1.0e24}
	intervals := []int{1, 7, 100, 250}
	for _, n := range densities {
		for _, interval := range intervals {
			cfg := DefaultConfig()
			cfg.PlasmaDensity = n
			cfg.DumpInterval = interval
			p, err := cfg.Derive()
			if err != nil {
				t.Fatal(err)
			}
			if p.Grid.Steps < 1 || (p.Grid.Steps-1)%interval != 0 {
				t.Errorf("n=%g interval=%d: steps %d is not 1 + a multiple of the interval",
					n, interval, p.Grid.Steps)
			}
			f := cfg.ResolutionFraction
			if p.Grid.Dz > f*math.Min(cfg.Drive.SigmaZ, p.Plasma.Wavelength) {
				t.Errorf("n=%g: Δz %g exceeds the resolution bound", n, p.Grid.Dz)
			}
			if p.Grid.Dr > f*math.Min(cfg.Drive.SigmaR, p.Plasma.Wavelength) {
				t.Errorf("n=%g: Δr %g exceeds the resolution bound", n, p.Grid.Dr)
			}
			if p.Propagation <= p.Ramp.Start+p.Ramp.Length {
				t.Errorf("n=%g: window does not cross the ramp", n)
			}
		}
	}
}

func TestCheck(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{"zero density", func(c *SimConfig) { c.PlasmaDensity = 0 }},
		{"negative density", func(c *SimConfig) { c.PlasmaDensity = -4.0e22 }},
		{"zero drive width", func(c *SimConfig) { c.Drive.SigmaR = 0 }},
		{"zero drive charge", func(c *SimConfig) { c.Drive.Charge = 0 }},
		{"zero witness macro", func(c *SimConfig) { c.Witness.NMacro = 0 }},
		{"bad fraction", func(c *SimConfig) { c.ResolutionFraction = 1.5 }},
		{"zero interval", func(c *SimConfig) { c.DumpInterval = 0 }},
		{"ion mass", func(c *SimConfig) { c.IonMass = 0 }},
		{"macro per cell", func(c *SimConfig) { c.MacroPerCellR = 0 }},
		{"modes", func(c *SimConfig) { c.AzimuthalModes = 0 }},
		{"trailing", func(c *SimConfig) { c.TrailingDistance = -1 }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(cfg)
		if _, err := cfg.Derive(); err == nil {
			t.Errorf("%s: expected an error", c.name)
		}
	}
	if err := DefaultConfig().Check(); err != nil {
		t.Errorf("default config: %v", err)
	}
}

func TestRampDensity(t *testing.T) {
	r := Ramp{Start: 10, Length: 5}
	cases := []struct {
		z, want float64
	}{
		{0, 0},
		{9.999, 0},
		{10, 0},
		{12.5, 0.5},
		{14.999, 0.9998},
		{15, 1},
		{100, 1},
	}
	for _, c := range cases {
		if have := r.Density(c.z); math.Abs(have-c.want) > 1.0e-12 {
			t.Errorf("Density(%g): want %g but have %g", c.z, c.want, have)
		}
	}
}

func TestPeakDensity(t *testing.T) {
	const tolerance = 1.0e-3

	// A 3 nC bunch at the resonant widths σ_r = 0.4/k_p, σ_z = 0.5/k_p
	// drives a strongly nonlinear wake: its peak density is an order of
	// magnitude above the plasma density.
	plasma := NewPlasma(4.0e22)
	b := Bunch{
		SigmaR: 0.4 / plasma.WaveNumber,
		SigmaZ: 0.5 / plasma.WaveNumber,
		Charge: -3.0e-9,
	}
	floatCompare(b.NumParticles(), 1.87245e10, tolerance, "NumParticles", t)

	ratio := b.PeakDensity() / plasma.Density
	floatCompare(ratio, 19.81, tolerance, "density ratio", t)
	if ratio <= 12 || ratio >= 20 {
		t.Errorf("density ratio %g outside the blowout range (12, 20)", ratio)
	}
}

func TestBunchPlacement(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.Derive()
	if err != nil {
		t.Fatal(err)
	}
	zd := p.DriveZFocus()
	if math.Abs(zd-0.75*p.Grid.DomainLength) > 1.0e-12 {
		t.Errorf("drive focus %g is not 3/4 of the domain", zd)
	}
	zw := p.WitnessZFocus(cfg.TrailingDistance)
	if math.Abs(zd-zw-cfg.TrailingDistance) > 1.0e-12 {
		t.Errorf("witness focus %g does not trail the drive by %g", zw, cfg.TrailingDistance)
	}
}

func TestDescribe(t *testing.T) {
	p, err := DefaultConfig().Derive()
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	if err := p.Describe(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"plasma wavelength", "steps", "ramp start"} {
		if !strings.Contains(out, want) {
			t.Errorf("description is missing %q", want)
		}
	}
}
