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
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Deck is the parameter file handed to the external engine.
type Deck struct {
	Grid    DeckGrid    `toml:"grid"`
	Plasma  DeckPlasma  `toml:"plasma"`
	Bunches []DeckBunch `toml:"bunch"`
	Output  DeckOutput  `toml:"output"`
}

// DeckGrid describes the computational domain and the stepping of the
// moving window.
type DeckGrid struct {
	Nz    int     `toml:"nz"`
	Nr    int     `toml:"nr"`
	Modes int     `toml:"nmodes"`
	Zmin  float64 `toml:"zmin"`
	Zmax  float64 `toml:"zmax"`
	Rmax  float64 `toml:"rmax"`
	Dt    float64 `toml:"dt"`
	Steps int     `toml:"nsteps"`

	WindowVelocity  float64 `toml:"window_velocity"`
	DepositionOrder int     `toml:"deposition_order"`
	Boundaries      string  `toml:"boundaries"`
}

// DeckPlasma describes the plasma species presented to the engine.
type DeckPlasma struct {
	Density    float64 `toml:"density"`
	RampStart  float64 `toml:"ramp_start"`
	RampLength float64 `toml:"ramp_length"`

	MacroZ int `toml:"nmacro_z"`
	MacroR int `toml:"nmacro_r"`
	MacroT int `toml:"nmacro_t"`

	IonMotion bool    `toml:"ion_motion"`
	IonMass   float64 `toml:"ion_mass"`
	IonCharge float64 `toml:"ion_charge"`
}

// DeckBunch describes one Gaussian electron bunch.
type DeckBunch struct {
	Name   string  `toml:"name"`
	SigmaR float64 `toml:"sigma_r"`
	SigmaZ float64 `toml:"sigma_z"`
	Charge float64 `toml:"charge"`
	NMacro int     `toml:"nmacro"`
	Gamma  float64 `toml:"gamma"`
	ZFocus float64 `toml:"zfocus"`
}

// DeckOutput describes the diagnostic dumps the engine should write.
type DeckOutput struct {
	Dir       string `toml:"dir"`
	Period    int    `toml:"period"`
	Fields    bool   `toml:"fields"`
	Particles bool   `toml:"particles"`
}

// NewDeck assembles the engine deck from the configuration and the
// derived parameters. Dumps are directed to dumpDir.
func NewDeck(c *SimConfig, p *Params, dumpDir string) *Deck {
	d := &Deck{
		Grid: DeckGrid{
			Nz:              p.Grid.Nz,
			Nr:              p.Grid.Nr,
			Modes:           c.AzimuthalModes,
			Zmin:            0,
			Zmax:            p.Grid.DomainLength,
			Rmax:            p.Grid.DomainRadius,
			Dt:              p.Grid.Dt,
			Steps:           p.Grid.Steps,
			WindowVelocity:  LightSpeed,
			DepositionOrder: c.DepositionOrder,
			Boundaries:      "open",
		},
		Plasma: DeckPlasma{
			Density:    c.PlasmaDensity,
			RampStart:  p.Ramp.Start,
			RampLength: p.Ramp.Length,
			MacroZ:     c.MacroPerCellZ,
			MacroR:     c.MacroPerCellR,
			MacroT:     c.MacroPerCellT,
			IonMotion:  c.IonMotion,
			IonMass:    c.IonMass,
			IonCharge:  ElementaryCharge,
		},
		Output: DeckOutput{
			Dir:       dumpDir,
			Period:    p.Grid.DumpPeriod,
			Fields:    true,
			Particles: true,
		},
	}
	if c.UseDrive {
		d.Bunches = append(d.Bunches, newDeckBunch(c.Drive, p.DriveZFocus()))
	}
	if c.UseWitness {
		d.Bunches = append(d.Bunches,
			newDeckBunch(c.Witness, p.WitnessZFocus(c.TrailingDistance)))
	}
	return d
}

// newDeckBunch converts a bunch to its deck form, substituting the
// derived focus position when none was configured.
func newDeckBunch(b Bunch, zFocus float64) DeckBunch {
	if b.ZFocus != 0 {
		zFocus = b.ZFocus
	}
	return DeckBunch{
		Name:   b.Name,
		SigmaR: b.SigmaR,
		SigmaZ: b.SigmaZ,
		Charge: b.Charge,
		NMacro: b.NMacro,
		Gamma:  b.Gamma,
		ZFocus: zFocus,
	}
}

// Write serializes the deck as TOML.
func (d *Deck) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(d)
}

// WriteFile writes the deck to the named file.
func (d *Deck) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadDeck reads a TOML deck file.
func ReadDeck(path string) (*Deck, error) {
	d := new(Deck)
	if _, err := toml.DecodeFile(path, d); err != nil {
		return nil, err
	}
	return d, nil
}
