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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// smallConfig returns a configuration with grids coarse enough for
// fast tests.
func smallConfig() *SimConfig {
	c := DefaultConfig()
	c.ResolutionFraction = 0.2
	c.Drive.NMacro = 100
	c.Witness.NMacro = 75
	return c
}

func arrayCompare(have, want *sparse.DenseArray, tolerance float64, name string, t *testing.T) {
	t.Helper()
	if !reflect.DeepEqual(want.Shape, have.Shape) {
		t.Errorf("%s: want shape %v but have shape %v", name, want.Shape, have.Shape)
		return
	}
	for i, wantv := range want.Elements {
		havev := have.Elements[i]
		if math.IsNaN(havev) || math.IsInf(havev, 0) {
			t.Errorf("%s, element %d: is %g", name, i, havev)
		}
		if math.Abs(havev-wantv)/math.Abs(havev+wantv)*2 > tolerance {
			t.Errorf("%s, element %d: want %g but have %g", name, i, wantv, havev)
		}
	}
}

func sliceCompare(have, want []float64, tolerance float64, name string, t *testing.T) {
	t.Helper()
	if len(have) != len(want) {
		t.Errorf("%s: want length %d but have length %d", name, len(want), len(have))
		return
	}
	for i := range want {
		floatCompare(have[i], want[i], tolerance, fmt.Sprintf("%s element %d", name, i), t)
	}
}

func TestSynthesizeBeforeRamp(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	d, err := Synthesize(c, p, 0)
	if err != nil {
		t.Fatal(err)
	}

	// The window has not reached the ramp, so the plasma fields are
	// all zero.
	for name, f := range d.Fields {
		for i, v := range f.Data.Elements {
			if v != 0 {
				t.Fatalf("field %s element %d: have %g, want 0", name, i, v)
			}
		}
	}

	driver := d.Particles[c.Drive.Name]
	witness := d.Particles[c.Witness.Name]
	if driver.Len() != 100 || witness.Len() != 75 {
		t.Fatalf("macroparticle counts: have (%d, %d), want (100, 75)",
			driver.Len(), witness.Len())
	}

	var wsum float64
	for _, w := range driver.W {
		wsum += w
	}
	floatCompare(wsum, c.Drive.NumParticles(), 1.0e-12, "driver charge", t)

	floatCompare(stat.Mean(driver.Z, nil), p.DriveZFocus(), 1.0e-9, "driver center", t)
	floatCompare(stat.Mean(witness.Z, nil),
		p.DriveZFocus()-c.TrailingDistance, 1.0e-9, "witness center", t)

	// Stratified sampling reproduces the bunch length to a few
	// percent even with 100 macroparticles.
	sigma := stat.StdDev(driver.Z, nil)
	if math.Abs(sigma-c.Drive.SigmaZ)/c.Drive.SigmaZ > 0.05 {
		t.Errorf("driver length: have %g, want within 5%% of %g", sigma, c.Drive.SigmaZ)
	}

	for i, r := range driver.R {
		if !(r > 0) || r > 6*c.Drive.SigmaR {
			t.Fatalf("driver radius %d out of range: %g", i, r)
		}
	}
	for i, uz := range driver.Uz {
		if uz != c.Drive.Gamma {
			t.Fatalf("driver momentum %d: have %g, want %g", i, uz, c.Drive.Gamma)
		}
	}
}

func TestSynthesizeFinal(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	d, err := Synthesize(c, p, p.Grid.Steps-1)
	if err != nil {
		t.Fatal(err)
	}

	floatCompare(d.Zmin, float64(p.Grid.Steps-1)*p.Grid.Dz, 1.0e-12, "Zmin", t)
	floatCompare(d.Time, float64(p.Grid.Steps-1)*p.Grid.Dt, 1.0e-12, "Time", t)

	// Past the ramp the full wake is present: the decelerating
	// plateau at the drive bunch and an accelerating region behind
	// it.
	w := NewWake(NewPlasma(c.PlasmaDensity), c.Drive)
	onAxis, err := d.OnAxis("Ez")
	if err != nil {
		t.Fatal(err)
	}
	maxEz, minEz := onAxis[0], onAxis[0]
	for _, v := range onAxis {
		maxEz = math.Max(maxEz, v)
		minEz = math.Min(minEz, v)
	}
	floatCompare(maxEz, w.Decel, 1.0e-12, "decelerating plateau", t)
	if minEz >= 0 {
		t.Errorf("no accelerating region: min Ez = %g", minEz)
	}

	// The ion column is positive, the sheath negative.
	var pos, neg bool
	for _, v := range d.Fields["rho"].Data.Elements {
		pos = pos || v > 0
		neg = neg || v < 0
	}
	if !pos || !neg {
		t.Errorf("charge density missing column or sheath: pos=%v neg=%v", pos, neg)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Synthesize(c, p, -1); err == nil {
		t.Error("expected error for a negative step")
	}
	if _, err := Synthesize(c, p, p.Grid.Steps); err == nil {
		t.Error("expected error for a step beyond the run")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	d, err := Synthesize(c, p, p.Grid.Steps-1)
	if err != nil {
		t.Fatal(err)
	}

	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := DumpPath(dir, d.Iteration)
	if err := d.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	d2, err := OpenDump(path)
	if err != nil {
		t.Fatal(err)
	}

	if d2.Iteration != d.Iteration {
		t.Errorf("iteration: have %d, want %d", d2.Iteration, d.Iteration)
	}
	floatCompare(d2.Time, d.Time, 1.0e-14, "time", t)
	floatCompare(d2.Zmin, d.Zmin, 1.0e-14, "zmin", t)
	floatCompare(d2.Zmax, d.Zmax, 1.0e-14, "zmax", t)
	floatCompare(d2.Rmax, d.Rmax, 1.0e-14, "rmax", t)
	floatCompare(d2.Dz, d.Dz, 1.0e-14, "dz", t)
	floatCompare(d2.Dr, d.Dr, 1.0e-14, "dr", t)
	if d2.Nr != d.Nr || d2.Nz != d.Nz {
		t.Errorf("shape: have (%d, %d), want (%d, %d)", d2.Nr, d2.Nz, d.Nr, d.Nz)
	}

	if len(d2.Fields) != 4 {
		t.Fatalf("field count: have %d, want 4", len(d2.Fields))
	}
	// The file stores float32, so allow for quantization.
	const tolerance = 1.0e-6
	for name, f := range d.Fields {
		f2, ok := d2.Fields[name]
		if !ok {
			t.Fatalf("field %s missing after round trip", name)
		}
		arrayCompare(f2.Data, f.Data, tolerance, name, t)
	}
	if d2.Fields["Ez"].Units != "V/m" {
		t.Errorf("Ez units: have %q, want %q", d2.Fields["Ez"].Units, "V/m")
	}

	if len(d2.Particles) != 2 {
		t.Fatalf("species count: have %d, want 2", len(d2.Particles))
	}
	for species, ps := range d.Particles {
		ps2, ok := d2.Particles[species]
		if !ok {
			t.Fatalf("species %s missing after round trip", species)
		}
		sliceCompare(ps2.Z, ps.Z, tolerance, species+" z", t)
		sliceCompare(ps2.R, ps.R, tolerance, species+" r", t)
		sliceCompare(ps2.Uz, ps.Uz, tolerance, species+" uz", t)
		sliceCompare(ps2.W, ps.W, tolerance, species+" w", t)
	}

	steps, err := DumpSteps(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 || steps[0] != d.Iteration {
		t.Errorf("dump steps: have %v, want [%d]", steps, d.Iteration)
	}
}

func TestDumpSteps(t *testing.T) {
	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{
		"data00000000.nc", "data00000100.nc", "data00000233.nc",
		"junk.nc", "databad.nc",
	} {
		if err := ioutil.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	steps, err := DumpSteps(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 100, 233}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("have %v, want %v", steps, want)
	}
}

func TestOpenDumpErrors(t *testing.T) {
	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	if _, err := OpenDump(filepath.Join(dir, "missing.nc")); err == nil {
		t.Error("expected error for a missing file")
	}

	bad := filepath.Join(dir, "bad.nc")
	if err := ioutil.WriteFile(bad, []byte("not a dump"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenDump(bad); err == nil {
		t.Error("expected error for a malformed file")
	}
}
