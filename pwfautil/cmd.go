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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/plasmamodel/pwfa"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the toolkit.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "plasma.density",
			usage: `
              plasma.density is the number density of the pre-ionized
              electron plasma [m⁻³].`,
			defaultVal: 4.0e22,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "plasma.ion_motion",
			usage: `
              plasma.ion_motion specifies whether mobile ions are included.
              When true, the engine is given a charge-neutral plasma of
              electrons and singly charged ions of mass plasma.ion_mass.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "plasma.ion_mass",
			usage: `
              plasma.ion_mass is the ion mass [kg]. The default is the
              helium mass.`,
			defaultVal: 6.695098738e-27,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "plasma.nmacro_z",
			usage: `
              plasma.nmacro_z is the number of plasma macroparticles per
              cell in the longitudinal direction.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "plasma.nmacro_r",
			usage: `
              plasma.nmacro_r is the number of plasma macroparticles per
              cell in the radial direction.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "plasma.nmacro_t",
			usage: `
              plasma.nmacro_t is the number of plasma macroparticles per
              cell in the azimuthal direction. It should be 1 unless more
              than one azimuthal mode is kept.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.enable",
			usage: `
              drive.enable specifies whether the drive bunch is included
              in the simulation. Its geometry anchors the grid resolution
              even when it is disabled.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.sigma_r",
			usage: `
              drive.sigma_r is the RMS transverse radius of the drive
              bunch [m].`,
			defaultVal: 3.65e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.sigma_z",
			usage: `
              drive.sigma_z is the RMS length of the drive bunch [m].`,
			defaultVal: 12.77e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.charge",
			usage: `
              drive.charge is the total drive bunch charge [C], negative
              for electrons. The default is 10¹⁰ electrons.`,
			defaultVal: -1.6021766208e-9,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.nmacro",
			usage: `
              drive.nmacro is the number of macroparticles representing
              the drive bunch.`,
			defaultVal: 10000,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.gamma",
			usage: `
              drive.gamma is the relativistic factor of the drive bunch.
              The reference studies use a very large value so that the
              bunch does not evolve over the simulated distance.`,
			defaultVal: 10.0e9,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "drive.zfocus",
			usage: `
              drive.zfocus is the initial longitudinal placement of the
              drive bunch center within the domain [m]. Zero places it at
              three quarters of the domain length.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.enable",
			usage: `
              witness.enable specifies whether the witness bunch is
              included in the simulation.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.sigma_r",
			usage: `
              witness.sigma_r is the RMS transverse radius of the witness
              bunch [m].`,
			defaultVal: 3.65e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.sigma_z",
			usage: `
              witness.sigma_z is the RMS length of the witness bunch [m].`,
			defaultVal: 6.38e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.charge",
			usage: `
              witness.charge is the total witness bunch charge [C],
              negative for electrons. The default is 4.3×10⁹ electrons.`,
			defaultVal: -6.88935946944e-10,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.nmacro",
			usage: `
              witness.nmacro is the number of macroparticles representing
              the witness bunch.`,
			defaultVal: 7500,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.gamma",
			usage: `
              witness.gamma is the relativistic factor of the witness
              bunch.`,
			defaultVal: 10.0e9,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.zfocus",
			usage: `
              witness.zfocus is the initial longitudinal placement of the
              witness bunch center within the domain [m]. Zero places it
              witness.trailing_distance behind the drive bunch.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "witness.trailing_distance",
			usage: `
              witness.trailing_distance is the distance by which the
              witness bunch center trails the drive bunch center [m].`,
			defaultVal: 150.0e-6,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "grid.resolution_fraction",
			usage: `
              grid.resolution_fraction is the fraction of the narrower of
              the drive bunch width and the plasma wavelength that one
              grid cell must resolve, in each direction.`,
			defaultVal: 0.05,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "grid.nmodes",
			usage: `
              grid.nmodes is the number of azimuthal Fourier modes the
              engine should keep.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "grid.deposition_order",
			usage: `
              grid.deposition_order is the engine's deposition stencil
              order. -1 selects the global stencil, which has exact
              dispersion but only runs in serial.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "run.dump_interval",
			usage: `
              run.dump_interval is the granularity of the diagnostic dump
              period. The total step count is rounded to one more than a
              multiple of it.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), deriveCmd.Flags(), wakeCmd.Flags(), synthCmd.Flags(), reportCmd.Flags()},
		},
		{
			name: "run.engine_command",
			usage: `
              run.engine_command is the engine executable that the run
              command launches on the written deck. It can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "run.engine_args",
			usage: `
              run.engine_args are extra arguments passed to the engine
              before the deck path. They can include environment
              variables.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "run.deck",
			usage: `
              run.deck is the path the engine deck is written to. It can
              include environment variables.`,
			defaultVal: "deck.toml",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), monitorCmd.Flags()},
		},
		{
			name: "run.dump_dir",
			usage: `
              run.dump_dir is the directory the engine writes its dumps
              to. The run command deletes and recreates it. It can
              include environment variables.`,
			defaultVal: "dumps",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), synthCmd.Flags(), plotCmd.Flags(), reportCmd.Flags(), monitorCmd.Flags()},
		},
		{
			name: "run.plots",
			usage: `
              run.plots specifies whether plots of the final dump are
              written after the engine finishes.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "run.plot_fields",
			usage: `
              run.plot_fields lists the fields mapped after the engine
              finishes.`,
			defaultVal: []string{"rho", "Ez"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "run.logfile",
			usage: `
              run.logfile is the path to the desired logfile location. It
              can include environment variables. If run.logfile is left
              blank, the logfile will be saved next to the deck.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "output.dir",
			usage: `
              output.dir is the directory plot files are written to. It
              can include environment variables.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "wake.samples",
			usage: `
              wake.samples is the number of points the wake line-out and
              bubble boundary are sampled at.`,
			defaultVal: 500,
			flagsets:   []*pflag.FlagSet{wakeCmd.Flags()},
		},
		{
			name: "wake.lineout",
			usage: `
              wake.lineout is the path the on-axis field line-out plot is
              written to. Blank skips the plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{wakeCmd.Flags()},
		},
		{
			name: "wake.boundary",
			usage: `
              wake.boundary is the path the bubble boundary plot is
              written to. Blank skips the plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{wakeCmd.Flags()},
		},
		{
			name: "bubble.delta",
			usage: `
              bubble.delta is the sheath width of the bubble boundary
              equation, in units of c/ω_p.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.sigma",
			usage: `
              bubble.sigma is the RMS length of the drive bunch in the
              bubble boundary equation, in units of c/ω_p.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.nb",
			usage: `
              bubble.nb is the normalized charge of the drive bunch in
              the bubble boundary equation.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.r0",
			usage: `
              bubble.r0 is the initial bubble boundary radius, in units
              of c/ω_p. The boundary starts at rest.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.ximax",
			usage: `
              bubble.ximax is the extent of the ξ grid the bubble
              boundary is integrated over, in units of c/ω_p. The
              integration reports an error where the boundary collapses
              to the axis, so ximax cannot reach past the rear of the
              bubble.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.samples",
			usage: `
              bubble.samples is the number of ξ grid points the bubble
              boundary is integrated over.`,
			defaultVal: 101,
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.out",
			usage: `
              bubble.out is the path the integrated boundary is written
              to as CSV. Blank writes it to standard output unless
              bubble.plot is set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "bubble.plot",
			usage: `
              bubble.plot is the path the integrated boundary plot is
              written to. Blank skips the plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{bubbleCmd.Flags()},
		},
		{
			name: "synth.steps",
			usage: `
              synth.steps lists the step indices to synthesize dumps for.
              An empty list synthesizes the final step.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{synthCmd.Flags()},
		},
		{
			name: "plot.step",
			usage: `
              plot.step is the dump step index to plot. -1 selects the
              latest dump present.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "plot.field",
			usage: `
              plot.field is the name of the field to plot.`,
			defaultVal: "Ez",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "plot.lineout",
			usage: `
              plot.lineout plots the on-axis line-out of the field
              instead of the r-z map.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "plot.particles",
			usage: `
              plot.particles names a species whose macroparticle
              positions are plotted instead of a field.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "plot.out",
			usage: `
              plot.out is the path the plot is written to. Blank derives
              a name from the plotted quantity and step inside
              output.dir.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "report.out",
			usage: `
              report.out is the path the HTML report is written to. It
              can include environment variables.`,
			defaultVal: "pwfa_report.html",
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "report.step",
			usage: `
              report.step is the dump step index whose on-axis field is
              charted in the report. -1 uses the latest dump present, if
              any.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "report.open",
			usage: `
              report.open opens the written report in the default
              browser.`,
			shorthand:  "o",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{reportCmd.Flags()},
		},
		{
			name: "monitor.address",
			usage: `
              monitor.address is the address the run monitor serves on.`,
			defaultVal: "localhost:8844",
			flagsets:   []*pflag.FlagSet{monitorCmd.Flags()},
		},
		{
			name: "monitor.poll",
			usage: `
              monitor.poll is the interval between progress samples
              pushed to monitor clients.`,
			defaultVal: "2s",
			flagsets:   []*pflag.FlagSet{monitorCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("PWFA")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(deriveCmd)
	Root.AddCommand(wakeCmd)
	Root.AddCommand(bubbleCmd)
	Root.AddCommand(synthCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(reportCmd)
	Root.AddCommand(monitorCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("pwfa: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "pwfa",
	Short: "A simulation setup toolkit for beam-driven plasma wakefield accelerators.",
	Long: `pwfa derives the numerical parameters of blowout-regime plasma
wakefield simulations from the physical inputs, writes parameter decks
for an external particle-in-cell engine, launches the engine, and reads
and plots its dumps. Use the subcommands specified below to access the
toolkit functionality.

Refer to the subcommand documentation for configuration options and
default settings. Configuration can be changed by using a configuration
file (and providing the path to the file using the --config flag), by
using command-line arguments, or by setting environment variables in
the format 'PWFA_var' where 'var' is the name of the variable to be
set. Many configuration variables are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of PWFA.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("PWFA v%s\n", pwfa.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine.",
	Long: `run derives the simulation parameters, writes the engine deck,
deletes and recreates the dump directory, launches the engine on the
deck and waits for it to finish. The engine executable is given by
run.engine_command. After the engine finishes, the final dump is read
back and its plots are written unless run.plots is false.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := simConfig(Cfg)
		if err != nil {
			return err
		}
		deckFile := os.ExpandEnv(Cfg.GetString("run.deck"))
		return Run(
			cmd,
			c,
			checkLogFile(Cfg.GetString("run.logfile"), deckFile),
			deckFile,
			os.ExpandEnv(Cfg.GetString("run.dump_dir")),
			os.ExpandEnv(Cfg.GetString("output.dir")),
			os.ExpandEnv(Cfg.GetString("run.engine_command")),
			expandStringSlice(Cfg.GetStringSlice("run.engine_args")),
			Cfg.GetBool("run.plots"),
			Cfg.GetStringSlice("run.plot_fields"))
	},
	DisableAutoGenTag: true,
}

// deriveCmd prints the derived simulation parameters without running
// anything.
var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive the simulation parameters.",
	Long: `derive computes the grid, timestep, step count and density ramp
from the configured plasma and bunches and prints them as a table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := simConfig(Cfg)
		if err != nil {
			return err
		}
		p, err := c.Derive()
		if err != nil {
			return err
		}
		if err := p.Describe(cmd.OutOrStdout()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(),
			"drive peak density / plasma density: %.4g\n", c.DensityRatio())
		return err
	},
	DisableAutoGenTag: true,
}

var wakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Estimate the strong-bubble wake.",
	Long: `wake prints the closed-form strong-bubble estimates for the
configured plasma and drive bunch: maximum bubble radius, bubble half
width, decelerating field, beam-plasma power and the validity checks.
If wake.lineout or wake.boundary name files, the on-axis field line-out
and the bubble boundary are plotted there.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := simConfig(Cfg)
		if err != nil {
			return err
		}
		w := pwfa.NewWake(pwfa.NewPlasma(c.PlasmaDensity), c.Drive)
		if err := w.Describe(cmd.OutOrStdout()); err != nil {
			return err
		}
		pr := w.Profile(Cfg.GetInt("wake.samples"))
		if path := os.ExpandEnv(Cfg.GetString("wake.lineout")); path != "" {
			if err := writePlot(path, pr.PlotEz); err != nil {
				return err
			}
		}
		if path := os.ExpandEnv(Cfg.GetString("wake.boundary")); path != "" {
			if err := writePlot(path, pr.PlotBoundary); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var bubbleCmd = &cobra.Command{
	Use:   "bubble",
	Short: "Integrate the bubble boundary equation.",
	Long: `bubble integrates the second-order equation for the bubble
boundary behind a Gaussian drive bunch, for a sheath of finite width,
over a uniform ξ grid in plasma units. The boundary starts at rest at
radius bubble.r0. The result is written as CSV to bubble.out (or to
standard output) and plotted to bubble.plot if set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eq := &pwfa.BubbleEquation{
			Delta:   Cfg.GetFloat64("bubble.delta"),
			SigmaXi: Cfg.GetFloat64("bubble.sigma"),
			NBeam:   Cfg.GetFloat64("bubble.nb"),
		}
		n := Cfg.GetInt("bubble.samples")
		if n < 2 {
			return fmt.Errorf("pwfa: bubble sample count %d must be at least 2", n)
		}
		ximax := Cfg.GetFloat64("bubble.ximax")
		xi := make([]float64, n)
		for i := range xi {
			xi[i] = ximax * float64(i) / float64(n-1)
		}
		rb, slope, err := eq.Integrate(xi, Cfg.GetFloat64("bubble.r0"))
		if err != nil {
			return err
		}
		plotPath := os.ExpandEnv(Cfg.GetString("bubble.plot"))
		if plotPath != "" {
			err := writePlot(plotPath, func(w io.Writer) error {
				return pwfa.PlotBubble(w, xi, rb)
			})
			if err != nil {
				return err
			}
		}
		if outPath := os.ExpandEnv(Cfg.GetString("bubble.out")); outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return writeBubbleCSV(f, xi, rb, slope)
		} else if plotPath == "" {
			return writeBubbleCSV(cmd.OutOrStdout(), xi, rb, slope)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// synthCmd writes analytic dumps in the engine output format, so that
// the reading and plotting pipeline can be exercised without a run.
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize engine dumps.",
	Long: `synth evaluates the strong-bubble wake model on the derived
grid and writes the result as dump files in the engine output format,
into run.dump_dir. The steps to synthesize are given by synth.steps;
by default only the final step is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := simConfig(Cfg)
		if err != nil {
			return err
		}
		p, err := c.Derive()
		if err != nil {
			return err
		}
		steps, err := toIntSliceE(Cfg.Get("synth.steps"))
		if err != nil {
			return fmt.Errorf("pwfa: reading synth 'steps': %v", err)
		}
		if len(steps) == 0 {
			steps = []int{p.Grid.Steps - 1}
		}
		dir := os.ExpandEnv(Cfg.GetString("run.dump_dir"))
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
		for _, step := range steps {
			d, err := pwfa.Synthesize(c, p, step)
			if err != nil {
				return err
			}
			path := pwfa.DumpPath(dir, step)
			if err := d.WriteFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot an existing dump.",
	Long: `plot renders a plot from a dump in run.dump_dir: the r-z map of
plot.field, its on-axis line-out if plot.lineout is set, or the
macroparticle positions of the species named by plot.particles. The
dump step is given by plot.step; -1 selects the latest dump present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := os.ExpandEnv(Cfg.GetString("run.dump_dir"))
		step := Cfg.GetInt("plot.step")
		if step < 0 {
			steps, err := pwfa.DumpSteps(dir)
			if err != nil {
				return err
			}
			if len(steps) == 0 {
				return fmt.Errorf("pwfa: no dumps in %s", dir)
			}
			step = steps[len(steps)-1]
		}
		d, err := pwfa.OpenDump(pwfa.DumpPath(dir, step))
		if err != nil {
			return err
		}

		outDir := os.ExpandEnv(Cfg.GetString("output.dir"))
		out := os.ExpandEnv(Cfg.GetString("plot.out"))
		field := Cfg.GetString("plot.field")
		var plot func(io.Writer) error
		switch {
		case Cfg.GetString("plot.particles") != "":
			species := Cfg.GetString("plot.particles")
			if out == "" {
				out = filepath.Join(outDir, fmt.Sprintf("%s_%08d.png", species, step))
			}
			plot = func(w io.Writer) error { return d.PlotParticles(w, species) }
		case Cfg.GetBool("plot.lineout"):
			if out == "" {
				out = filepath.Join(outDir, fmt.Sprintf("%s_lineout_%08d.png", field, step))
			}
			plot = func(w io.Writer) error { return d.PlotOnAxis(w, field) }
		default:
			if out == "" {
				out = filepath.Join(outDir, fmt.Sprintf("%s_%08d.png", field, step))
			}
			plot = func(w io.Writer) error { return d.PlotField(w, field) }
		}
		if err := writePlot(out, plot); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		return nil
	},
	DisableAutoGenTag: true,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the HTML report.",
	Long: `report writes a self-contained HTML report of the derivation:
the derived parameter tables with the wake line-out, bubble boundary
and density ramp charts. If a dump is present in run.dump_dir (or
report.step names one), its on-axis field is charted next to the
model. With --open the report is opened in the default browser.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := simConfig(Cfg)
		if err != nil {
			return err
		}
		p, err := c.Derive()
		if err != nil {
			return err
		}
		r := pwfa.NewReport(c, p)

		dir := os.ExpandEnv(Cfg.GetString("run.dump_dir"))
		if step := Cfg.GetInt("report.step"); step >= 0 {
			d, err := pwfa.OpenDump(pwfa.DumpPath(dir, step))
			if err != nil {
				return err
			}
			r.Dump = d
		} else if steps, err := pwfa.DumpSteps(dir); err == nil && len(steps) > 0 {
			d, err := pwfa.OpenDump(pwfa.DumpPath(dir, steps[len(steps)-1]))
			if err != nil {
				return err
			}
			r.Dump = d
		}

		out := os.ExpandEnv(Cfg.GetString("report.out"))
		if err := r.WriteFile(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
		if Cfg.GetBool("report.open") {
			return open.Run(out)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Serve run progress over HTTP.",
	Long: `monitor serves the progress of an engine run on
monitor.address: the dump steps present in run.dump_dir, pushed over a
websocket as they appear, and plots of the latest dump rendered on
request. The deck at run.deck, if readable, provides the expected
total step count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var deck *pwfa.Deck
		if path := os.ExpandEnv(Cfg.GetString("run.deck")); path != "" {
			d, err := pwfa.ReadDeck(path)
			if err != nil {
				log.Printf("pwfa: monitor running without a deck: %v", err)
			} else {
				deck = d
			}
		}
		m := pwfa.NewMonitor(os.ExpandEnv(Cfg.GetString("run.dump_dir")), deck)
		poll, err := cast.ToDurationE(Cfg.Get("monitor.poll"))
		if err != nil {
			return fmt.Errorf("pwfa: reading monitor 'poll': %v", err)
		}
		m.Poll = poll
		return m.ListenAndServe(context.Background(), Cfg.GetString("monitor.address"))
	},
	DisableAutoGenTag: true,
}
