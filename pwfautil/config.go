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

package pwfautil

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/plasmamodel/pwfa"
)

// simConfig unmarshals a viper configuration for a simulation.
func simConfig(cfg *viper.Viper) (*pwfa.SimConfig, error) {
	c := pwfa.SimConfig{
		PlasmaDensity: cfg.GetFloat64("plasma.density"),
		UseDrive:      cfg.GetBool("drive.enable"),
		UseWitness:    cfg.GetBool("witness.enable"),
		Drive: pwfa.Bunch{
			Name:   "driver",
			SigmaR: cfg.GetFloat64("drive.sigma_r"),
			SigmaZ: cfg.GetFloat64("drive.sigma_z"),
			Charge: cfg.GetFloat64("drive.charge"),
			NMacro: cfg.GetInt("drive.nmacro"),
			Gamma:  cfg.GetFloat64("drive.gamma"),
			ZFocus: cfg.GetFloat64("drive.zfocus"),
		},
		Witness: pwfa.Bunch{
			Name:   "witness",
			SigmaR: cfg.GetFloat64("witness.sigma_r"),
			SigmaZ: cfg.GetFloat64("witness.sigma_z"),
			Charge: cfg.GetFloat64("witness.charge"),
			NMacro: cfg.GetInt("witness.nmacro"),
			Gamma:  cfg.GetFloat64("witness.gamma"),
			ZFocus: cfg.GetFloat64("witness.zfocus"),
		},
		TrailingDistance:   cfg.GetFloat64("witness.trailing_distance"),
		ResolutionFraction: cfg.GetFloat64("grid.resolution_fraction"),
		DumpInterval:       cfg.GetInt("run.dump_interval"),
		IonMotion:          cfg.GetBool("plasma.ion_motion"),
		IonMass:            cfg.GetFloat64("plasma.ion_mass"),
		MacroPerCellZ:      cfg.GetInt("plasma.nmacro_z"),
		MacroPerCellR:      cfg.GetInt("plasma.nmacro_r"),
		MacroPerCellT:      cfg.GetInt("plasma.nmacro_t"),
		AzimuthalModes:     cfg.GetInt("grid.nmodes"),
		DepositionOrder:    cfg.GetInt("grid.deposition_order"),
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, deckFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(deckFile, filepath.Ext(deckFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			o[i] = int(val.(int64))
		}
		return o, nil
	}
	var o []int
	if err := json.Unmarshal([]byte(s.(string)), &o); err != nil {
		return nil, err
	}
	return o, nil
}

// writePlot writes the plot rendered by plot to the named file.
func writePlot(path string, plot func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
