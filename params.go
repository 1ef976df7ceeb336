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
	"io"
	"math"
	"text/tabwriter"
)

// Version gives the version number of this release of the toolkit.
const Version = "0.1.0"

// Physical constants (CODATA 2014) [SI units].
const (
	ElementaryCharge = 1.6021766208e-19 // [C]
	ElectronMass     = 9.10938356e-31   // [kg]
	ProtonMass       = 1.672621898e-27  // [kg]
	NeutronMass      = 1.674927471e-27  // [kg]
	Epsilon0         = 8.854187817e-12  // [F m⁻¹]
	LightSpeed       = 2.99792458e8     // [m s⁻¹]
)

// Bunch specifies a Gaussian electron bunch.
type Bunch struct {
	Name string // species name used in engine output

	SigmaR float64 `desc:"RMS transverse radius" units:"m"`
	SigmaZ float64 `desc:"RMS length" units:"m"`

	// Charge is the total bunch charge. It is negative for
	// electron bunches.
	Charge float64 `desc:"Total charge" units:"C"`

	// NMacro is the number of macroparticles representing the bunch.
	NMacro int

	// Gamma is the relativistic factor of the bunch. The reference
	// studies use a very large value so that the bunch does not evolve
	// over the simulated distance.
	Gamma float64

	// ZFocus is the initial longitudinal placement of the bunch
	// center within the domain [m]. If zero, it is derived.
	ZFocus float64
}

// NumParticles returns the number of physical electrons in the bunch.
func (b Bunch) NumParticles() float64 {
	return math.Abs(b.Charge) / ElementaryCharge
}

// PeakDensity returns the peak number density of the bunch,
// assuming a tri-Gaussian distribution [m⁻³].
func (b Bunch) PeakDensity() float64 {
	return b.NumParticles() /
		(math.Pow(2*math.Pi, 1.5) * b.SigmaR * b.SigmaR * b.SigmaZ)
}

// SimConfig holds the physical and numerical inputs that the
// simulation parameters are derived from. The zero value is not
// usable; start from DefaultConfig.
type SimConfig struct {
	// PlasmaDensity is the number density of the pre-ionized
	// electron plasma [m⁻³].
	PlasmaDensity float64

	UseDrive   bool  // whether to include the drive bunch
	UseWitness bool  // whether to include the witness bunch
	Drive      Bunch // drive bunch parameters
	Witness    Bunch // witness bunch parameters

	// TrailingDistance is the distance by which the witness bunch
	// center trails the drive bunch center [m].
	TrailingDistance float64

	// ResolutionFraction is the fraction of the narrower of the drive
	// bunch width and the plasma wavelength that one grid cell must
	// resolve, in each direction.
	ResolutionFraction float64

	// DumpInterval is the granularity of the diagnostic dump period.
	// The total step count is rounded to one more than a multiple
	// of it.
	DumpInterval int

	// IonMotion specifies whether mobile ions are included. When true,
	// a charge-neutral plasma of electrons and singly charged ions of
	// mass IonMass is presented to the engine.
	IonMotion bool
	IonMass   float64 // [kg]

	// Macroparticles per cell for the plasma species.
	MacroPerCellZ int
	MacroPerCellR int
	MacroPerCellT int // should be 1 unless higher azimuthal modes are used

	// AzimuthalModes is the number of azimuthal Fourier modes the
	// engine should keep.
	AzimuthalModes int

	// DepositionOrder is the engine's deposition stencil order.
	// -1 selects the global stencil, which has exact dispersion but
	// only runs in serial.
	DepositionOrder int
}

// DefaultConfig returns the configuration for the reference blowout
// study: a 4×10²² m⁻³ plasma with FACET-II-like drive and witness
// bunches and helium ions.
func DefaultConfig() *SimConfig {
	return &SimConfig{
		PlasmaDensity: 4.0e22,
		UseDrive:      true,
		UseWitness:    true,
		Drive: Bunch{
			Name:   "driver",
			SigmaR: 3.65e-6,
			SigmaZ: 12.77e-6,
			Charge: 1.0e10 * -ElementaryCharge,
			NMacro: 10000,
			Gamma:  10.0e9,
		},
		Witness: Bunch{
			Name:   "witness",
			SigmaR: 3.65e-6,
			SigmaZ: 6.38e-6,
			Charge: 4.3e9 * -ElementaryCharge,
			NMacro: 7500,
			Gamma:  10.0e9,
		},
		TrailingDistance:   150.0e-6,
		ResolutionFraction: 0.05,
		DumpInterval:       100,
		IonMotion:          true,
		IonMass:            2*ProtonMass + 2*NeutronMass, // helium
		MacroPerCellZ:      4,
		MacroPerCellR:      4,
		MacroPerCellT:      1,
		AzimuthalModes:     1,
		DepositionOrder:    -1,
	}
}

// Check returns an error if the configuration is not usable.
func (c *SimConfig) Check() error {
	if !(c.PlasmaDensity > 0) {
		return fmt.Errorf("pwfa: plasma density %g must be positive", c.PlasmaDensity)
	}
	// The drive bunch geometry anchors the grid resolution, so it is
	// required even when the bunch itself is disabled.
	if err := c.Drive.check("drive"); err != nil {
		return err
	}
	if c.UseWitness {
		if err := c.Witness.check("witness"); err != nil {
			return err
		}
		if c.TrailingDistance <= 0 {
			return fmt.Errorf("pwfa: witness trailing distance %g must be positive", c.TrailingDistance)
		}
	}
	if !(c.ResolutionFraction > 0) || c.ResolutionFraction >= 1 {
		return fmt.Errorf("pwfa: resolution fraction %g must be in (0, 1)", c.ResolutionFraction)
	}
	if c.DumpInterval < 1 {
		return fmt.Errorf("pwfa: dump interval %d must be positive", c.DumpInterval)
	}
	if c.IonMotion && c.IonMass <= 0 {
		return fmt.Errorf("pwfa: ion mass %g must be positive when ion motion is included", c.IonMass)
	}
	if c.MacroPerCellZ < 1 || c.MacroPerCellR < 1 || c.MacroPerCellT < 1 {
		return fmt.Errorf("pwfa: macroparticles per cell (%d, %d, %d) must be positive",
			c.MacroPerCellZ, c.MacroPerCellR, c.MacroPerCellT)
	}
	if c.AzimuthalModes < 1 {
		return fmt.Errorf("pwfa: azimuthal mode count %d must be positive", c.AzimuthalModes)
	}
	return nil
}

func (b Bunch) check(label string) error {
	if b.SigmaR <= 0 || b.SigmaZ <= 0 {
		return fmt.Errorf("pwfa: %s bunch widths (%g, %g) must be positive", label, b.SigmaR, b.SigmaZ)
	}
	if b.Charge == 0 {
		return fmt.Errorf("pwfa: %s bunch charge must be nonzero", label)
	}
	if b.NMacro < 1 {
		return fmt.Errorf("pwfa: %s bunch macroparticle count %d must be positive", label, b.NMacro)
	}
	if b.Gamma <= 1 {
		return fmt.Errorf("pwfa: %s bunch gamma %g must exceed 1", label, b.Gamma)
	}
	return nil
}

// Plasma holds the quantities derived from the plasma density.
// It is immutable once computed.
type Plasma struct {
	Density    float64 // [m⁻³]
	OmegaP     float64 // angular plasma frequency [rad s⁻¹]
	WaveNumber float64 // k_p [rad m⁻¹]
	Wavelength float64 // λ_p = 2π/k_p [m]
}

// NewPlasma derives the plasma frequency, wavenumber and wavelength
// from the given number density.
func NewPlasma(density float64) Plasma {
	omega := math.Sqrt(density * ElementaryCharge * ElementaryCharge /
		(ElectronMass * Epsilon0))
	k := omega / LightSpeed
	return Plasma{
		Density:    density,
		OmegaP:     omega,
		WaveNumber: k,
		Wavelength: 2 * math.Pi / k,
	}
}

// SkinDepth returns the plasma skin depth 1/k_p [m].
func (p Plasma) SkinDepth() float64 { return 1 / p.WaveNumber }

// Grid holds the derived computational grid.
type Grid struct {
	Nz, Nr int     // cell counts
	Dz, Dr float64 // cell spacings [m]

	DomainLength float64 // longitudinal extent [m]
	DomainRadius float64 // radial extent [m]

	Dt    float64 // timestep [s]; the window advances one cell per step
	Steps int     // total number of steps

	// DumpPeriod is the number of steps between diagnostic dumps.
	// For the final-snapshot workflow it is Steps-1, so that exactly
	// the initial and final states are written.
	DumpPeriod int
}

// Ramp is a linear density up-ramp presented to the engine so that the
// window does not encounter a discontinuous plasma edge.
type Ramp struct {
	Start  float64 // [m]
	Length float64 // [m]
}

// Density returns the relative plasma density at longitudinal
// position z: zero before the ramp, rising linearly across it, and
// one beyond it.
func (r Ramp) Density(z float64) float64 {
	switch {
	case z < r.Start:
		return 0
	case z < r.Start+r.Length:
		return (z - r.Start) / r.Length
	default:
		return 1
	}
}

// Params is the complete set of derived simulation parameters that is
// handed to the external engine.
type Params struct {
	Plasma Plasma
	Grid   Grid
	Ramp   Ramp

	// Propagation is the total distance the window travels [m].
	Propagation float64
}

// Derive computes the simulation parameters from the configuration.
// The arithmetic follows the reference blowout study: the domain holds
// three plasma wavelengths longitudinally and one radially, the grid
// resolves the narrower of the drive bunch extent and the plasma
// wavelength by the configured fraction, and the window advances one
// cell per step until it has crossed the ramp and propagated three
// further domain lengths.
func (c *SimConfig) Derive() (*Params, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	plasma := NewPlasma(c.PlasmaDensity)

	domainLength := 3 * plasma.Wavelength
	domainRadius := plasma.Wavelength

	ramp := Ramp{
		Start:  domainLength,
		Length: 5 * c.Drive.SigmaZ,
	}

	f := c.ResolutionFraction
	dz := math.Min(f*c.Drive.SigmaZ, f*plasma.Wavelength)
	dr := math.Min(f*c.Drive.SigmaR, f*plasma.Wavelength)

	nz := int(math.Round(domainLength / dz))
	nr := int(math.Round(domainRadius / dr))

	// One cell per step keeps the moving window aligned with the grid.
	dt := domainLength / LightSpeed / float64(nz)

	propagation := ramp.Start + ramp.Length + 3*domainLength
	raw := int(propagation / LightSpeed / dt)
	steps := raw - raw%c.DumpInterval + 1

	p := &Params{
		Plasma: plasma,
		Grid: Grid{
			Nz:           nz,
			Nr:           nr,
			Dz:           dz,
			Dr:           dr,
			DomainLength: domainLength,
			DomainRadius: domainRadius,
			Dt:           dt,
			Steps:        steps,
			DumpPeriod:   steps - 1,
		},
		Ramp:        ramp,
		Propagation: propagation,
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return p, nil
}

// check enforces the derivation invariants.
func (p *Params) check() error {
	if p.Grid.Steps <= p.Grid.DumpPeriod {
		return fmt.Errorf("pwfa: step count %d must exceed the dump period %d",
			p.Grid.Steps, p.Grid.DumpPeriod)
	}
	if p.Propagation <= p.Ramp.Start+p.Ramp.Length {
		return fmt.Errorf("pwfa: propagation distance %g must exceed the ramp end %g",
			p.Propagation, p.Ramp.Start+p.Ramp.Length)
	}
	return nil
}

// DriveZFocus returns the initial longitudinal placement of the drive
// bunch center: three quarters of the way along the domain.
func (p *Params) DriveZFocus() float64 { return 0.75 * p.Grid.DomainLength }

// WitnessZFocus returns the initial placement of the witness bunch
// center, trailing the drive bunch by the given distance.
func (p *Params) WitnessZFocus(trailing float64) float64 {
	return p.DriveZFocus() - trailing
}

// DensityRatio returns the ratio of the drive bunch peak density to
// the plasma density. Values well above unity indicate the blowout
// regime.
func (c *SimConfig) DensityRatio() float64 {
	return c.Drive.PeakDensity() / c.PlasmaDensity
}

// Describe writes a human-readable table of the derived parameters.
func (p *Params) Describe(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 2, 1, ' ', 0)
	rows := []struct {
		name  string
		value string
	}{
		{"plasma density [m⁻³]", fmt.Sprintf("%.6g", p.Plasma.Density)},
		{"plasma frequency [rad/s]", fmt.Sprintf("%.6g", p.Plasma.OmegaP)},
		{"plasma wavenumber [rad/m]", fmt.Sprintf("%.6g", p.Plasma.WaveNumber)},
		{"plasma wavelength [µm]", fmt.Sprintf("%.6g", p.Plasma.Wavelength*1e6)},
		{"domain length [µm]", fmt.Sprintf("%.6g", p.Grid.DomainLength*1e6)},
		{"domain radius [µm]", fmt.Sprintf("%.6g", p.Grid.DomainRadius*1e6)},
		{"cell size Δz [µm]", fmt.Sprintf("%.6g", p.Grid.Dz*1e6)},
		{"cell size Δr [µm]", fmt.Sprintf("%.6g", p.Grid.Dr*1e6)},
		{"cells Nz × Nr", fmt.Sprintf("%d × %d", p.Grid.Nz, p.Grid.Nr)},
		{"timestep [s]", fmt.Sprintf("%.6g", p.Grid.Dt)},
		{"steps", fmt.Sprintf("%d", p.Grid.Steps)},
		{"dump period", fmt.Sprintf("%d", p.Grid.DumpPeriod)},
		{"ramp start [µm]", fmt.Sprintf("%.6g", p.Ramp.Start*1e6)},
		{"ramp length [µm]", fmt.Sprintf("%.6g", p.Ramp.Length*1e6)},
		{"propagation [mm]", fmt.Sprintf("%.6g", p.Propagation*1e3)},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.name, r.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}
