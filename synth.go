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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat/distuv"
)

// Synthesize evaluates the strong-bubble wake model on the window grid
// at the given step and assembles the result as a diagnostic dump in
// the engine output format. It lets the reading and plotting pipeline
// run, and the tests pass, without an engine installation.
func Synthesize(c *SimConfig, p *Params, step int) (*Dump, error) {
	if step < 0 || step >= p.Grid.Steps {
		return nil, fmt.Errorf("pwfa: synthesis step %d outside [0, %d)", step, p.Grid.Steps)
	}

	d := &Dump{
		Iteration: step,
		Time:      float64(step) * p.Grid.Dt,
		Zmin:      float64(step) * p.Grid.Dz,
		Rmin:      0,
		Rmax:      p.Grid.DomainRadius,
		Dz:        p.Grid.Dz,
		Dr:        p.Grid.Dr,
		Nr:        p.Grid.Nr,
		Nz:        p.Grid.Nz,
	}
	d.Zmax = d.Zmin + p.Grid.DomainLength

	// The drive bunch rides at a fixed position in the window; the
	// local plasma density follows the ramp.
	driveZ := d.Zmin + p.DriveZFocus()
	nLocal := p.Plasma.Density * p.Ramp.Density(driveZ)

	var w *Wake
	if nLocal > 0 {
		w = NewWake(NewPlasma(nLocal), c.Drive)
	}

	rho := sparse.ZerosDense(d.Nr, d.Nz)
	ez := sparse.ZerosDense(d.Nr, d.Nz)
	er := sparse.ZerosDense(d.Nr, d.Nz)
	bt := sparse.ZerosDense(d.Nr, d.Nz)

	if w != nil {
		// ξ measures distance back from the head of the drive bunch.
		front := driveZ + w.BeamLength/2
		sheath := 2 * p.Grid.Dr
		for i, z := range d.ZCoords() {
			xi := front - z
			if xi < 0 {
				continue
			}
			rb := LocalRadius(xi, w.RbMax)
			var ezOnAxis float64
			switch {
			case xi < w.BeamLength:
				ezOnAxis = w.Decel
			case rb > 0:
				ezOnAxis = EzOnAxisNoBeam(nLocal, rb, w.RbMax)
			}
			for j, r := range d.RCoords() {
				switch {
				case r < rb:
					// Ion column: uniform Ez, linear focusing fields.
					ez.Set(ezOnAxis, j, i)
					rho.Set(ElementaryCharge*nLocal, j, i)
					e := ElementaryCharge * nLocal * r / (4 * Epsilon0)
					er.Set(e, j, i)
					bt.Set(-e/LightSpeed, j, i)
				case rb > 0 && r < rb+sheath:
					// The sheath density balances the expelled
					// column charge.
					rho.Set(-ElementaryCharge*nLocal*rb*rb/
						(2*rb*sheath+sheath*sheath), j, i)
				}
			}
		}
	}

	d.AddField("rho", "charge density", "C/m3", rho)
	d.AddField("Ez", "longitudinal electric field", "V/m", ez)
	d.AddField("Er", "radial electric field", "V/m", er)
	d.AddField("Bt", "azimuthal magnetic field", "T", bt)

	if c.UseDrive {
		d.AddParticles(c.Drive.Name, bunchParticles(c.Drive, driveZ))
	}
	if c.UseWitness {
		d.AddParticles(c.Witness.Name,
			bunchParticles(c.Witness, driveZ-c.TrailingDistance))
	}
	return d, nil
}

// bunchParticles samples the bunch phase space deterministically:
// longitudinal positions stratified over the Gaussian quantiles,
// radii over the corresponding Rayleigh quantiles with a
// low-discrepancy stream to decouple the two coordinates.
func bunchParticles(b Bunch, center float64) *ParticleSet {
	const golden = 0.6180339887498949
	n := b.NMacro
	p := &ParticleSet{
		Z:  make([]float64, n),
		R:  make([]float64, n),
		Uz: make([]float64, n),
		W:  make([]float64, n),
	}
	weight := b.NumParticles() / float64(n)
	dist := distuv.Normal{Mu: center, Sigma: b.SigmaZ}
	for k := 0; k < n; k++ {
		q := (float64(k) + 0.5) / float64(n)
		qr := math.Mod((float64(k)+0.5)*golden, 1)
		p.Z[k] = dist.Quantile(q)
		p.R[k] = b.SigmaR * math.Sqrt(-2*math.Log(1-qr))
		p.Uz[k] = b.Gamma
		p.W[k] = weight
	}
	return p
}
