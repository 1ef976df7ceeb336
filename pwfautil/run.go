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
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/plasmamodel/pwfa"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Run derives the simulation parameters, writes the engine deck, runs
// the engine on it and reads back the final dump.
//
// CobraCommand is the cobra.Command instance where Run is called from.
// It is needed to print certain outputs to the test harness.
//
// c holds the physical configuration of the simulation.
//
// LogFile is the path to the desired logfile location.
//
// DeckFile is the path the engine deck is written to.
//
// DumpDir is the directory the engine writes its dumps to. It is
// deleted and recreated before the engine starts.
//
// PlotDir is the directory plots of the final dump are written to.
//
// EngineCommand is the engine executable and EngineArgs are any extra
// arguments placed before the deck path.
//
// If WritePlots is true, the fields named by PlotFields are mapped
// from the final dump after the engine finishes, and the on-axis Ez
// line-out is plotted when the dump carries an Ez field.
func Run(CobraCommand *cobra.Command, c *pwfa.SimConfig, LogFile, DeckFile, DumpDir, PlotDir,
	EngineCommand string, EngineArgs []string, WritePlots bool, PlotFields []string) error {

	startTime := time.Now()

	logfile, err := os.Create(LogFile)
	if err != nil {
		return fmt.Errorf("pwfa: problem creating log file: %v", err)
	}
	defer logfile.Close()
	mw := io.MultiWriter(CobraCommand.OutOrStdout(), logfile)
	log.SetOutput(mw)

	log.Println("Deriving simulation parameters...")
	p, err := c.Derive()
	if err != nil {
		return err
	}
	if err := p.Describe(mw); err != nil {
		return err
	}

	deck := pwfa.NewDeck(c, p, DumpDir)
	if err := deck.WriteFile(DeckFile); err != nil {
		return err
	}
	log.Printf("Wrote engine deck to %s", DeckFile)

	if err := pwfa.PrepareDumpDir(DumpDir); err != nil {
		return fmt.Errorf("pwfa: preparing dump directory: %v", err)
	}

	elog := logrus.New()
	elog.SetOutput(mw)
	e := &pwfa.Engine{
		Command: EngineCommand,
		Args:    EngineArgs,
		Stdout:  mw,
		Stderr:  mw,
		Log:     elog,
	}
	if err := e.Run(context.Background(), DeckFile); err != nil {
		return err
	}

	steps, err := pwfa.DumpSteps(DumpDir)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("pwfa: engine finished but wrote no dumps to %s", DumpDir)
	}
	d, err := pwfa.OpenDump(pwfa.DumpPath(DumpDir, steps[len(steps)-1]))
	if err != nil {
		return err
	}
	log.Printf("Engine wrote %d dumps; final step %d at t=%.4g s", len(steps), d.Iteration, d.Time)

	if lambda, err := d.MeasureWavelength(); err == nil {
		log.Printf("Measured plasma wavelength %.4g m (derived %.4g m)", lambda, p.Plasma.Wavelength)
	} else {
		log.Printf("Could not measure the plasma wavelength: %v", err)
	}

	if WritePlots {
		for _, field := range PlotFields {
			path := filepath.Join(PlotDir, fmt.Sprintf("%s_%08d.png", field, d.Iteration))
			err := writePlot(path, func(w io.Writer) error { return d.PlotField(w, field) })
			if err != nil {
				return err
			}
			log.Printf("Wrote %s", path)
		}
		if _, ok := d.Fields["Ez"]; ok {
			path := filepath.Join(PlotDir, fmt.Sprintf("Ez_lineout_%08d.png", d.Iteration))
			err := writePlot(path, func(w io.Writer) error { return d.PlotOnAxis(w, "Ez") })
			if err != nil {
				return err
			}
			log.Printf("Wrote %s", path)
		}
	}

	elapsedTime := time.Since(startTime)
	log.Printf("Elapsed time: %f hours", elapsedTime.Hours())

	return nil
}

// writeBubbleCSV writes an integrated bubble boundary as CSV with
// columns xi, rb and drb_dxi, all in plasma units.
func writeBubbleCSV(w io.Writer, xi, rb, slope []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"xi", "rb", "drb_dxi"}); err != nil {
		return err
	}
	for i := range xi {
		err := cw.Write([]string{
			strconv.FormatFloat(xi[i], 'g', -1, 64),
			strconv.FormatFloat(rb[i], 'g', -1, 64),
			strconv.FormatFloat(slope[i], 'g', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
