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
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// reportSamples is the number of points per report chart.
const reportSamples = 200

// Report renders a derivation as a self-contained HTML page with
// interactive charts of the wake line-out, the bubble boundary and the
// plasma density profile. If Dump is set and holds an Ez field, the
// measured on-axis field is charted as well, with the measured
// wavelength next to the derived one.
type Report struct {
	Config *SimConfig
	Params *Params
	Wake   *Wake
	Dump   *Dump
}

// NewReport evaluates the wake model for the configuration and returns
// a report over it.
func NewReport(c *SimConfig, p *Params) *Report {
	return &Report{Config: c, Params: p, Wake: NewWake(p.Plasma, c.Drive)}
}

// WriteHTML renders the report page.
func (r *Report) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "PWFA blowout derivation"
	page.SetLayout(components.PageCenterLayout)

	pr := r.Wake.Profile(reportSamples)
	page.AddCharts(
		r.lineoutChart(pr),
		r.boundaryChart(pr),
		r.rampChart(),
	)
	if c := r.dumpChart(); c != nil {
		page.AddCharts(c)
	}
	return page.Render(w)
}

// WriteFile writes the report to the named file.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteHTML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// inputSummary lists the configured inputs.
func (r *Report) inputSummary() string {
	c := r.Config
	return fmt.Sprintf(
		"n = %.3g m⁻³\ndrive: σr = %.3g µm, σz = %.3g µm, Q = %.3g nC, γ = %.3g\nwitness: σz = %.3g µm, Q = %.3g nC, trailing %.3g µm",
		c.PlasmaDensity,
		c.Drive.SigmaR*1e6, c.Drive.SigmaZ*1e6, c.Drive.Charge*1e9, c.Drive.Gamma,
		c.Witness.SigmaZ*1e6, c.Witness.Charge*1e9, c.TrailingDistance*1e6)
}

// derivedSummary lists the derived quantities.
func (r *Report) derivedSummary() string {
	p, w := r.Params, r.Wake
	return fmt.Sprintf(
		"λp = %.4g µm, Nz × Nr = %d × %d, Δz = %.3g µm, steps = %d\nrb,max = %.4g µm, ξb = %.4g µm, E_decel = %.3g GV/m, P = %.3g W\nk_p·rb,max = %.3g, N/(n·L³) = %.3g",
		p.Plasma.Wavelength*1e6, p.Grid.Nz, p.Grid.Nr, p.Grid.Dz*1e6, p.Grid.Steps,
		w.RbMax*1e6, w.HalfWidth*1e6, w.Decel*1e-9, w.Power,
		w.RadiusCheck(), w.ChargeCheck())
}

func (r *Report) lineoutChart(pr *Profile) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "On-axis wakefield",
			Subtitle: r.derivedSummary(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ξ (µm)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Ez (GV/m)"}),
	)
	x := make([]float64, len(pr.Xi))
	data := make([]opts.LineData, len(pr.Xi))
	for i, xi := range pr.Xi {
		x[i] = xi * 1e6
		data[i] = opts.LineData{Value: pr.Ez[i] * 1e-9}
	}
	line.SetXAxis(x)
	line.AddSeries("Ez", data)
	return line
}

func (r *Report) boundaryChart(pr *Profile) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Bubble boundary",
			Subtitle: r.inputSummary(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ξ (µm)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "r_b (µm)"}),
	)
	x := make([]float64, len(pr.Xi))
	data := make([]opts.LineData, len(pr.Xi))
	for i, xi := range pr.Xi {
		x[i] = xi * 1e6
		data[i] = opts.LineData{Value: pr.Rb[i] * 1e6}
	}
	line.SetXAxis(x)
	line.AddSeries("r_b", data)
	return line
}

func (r *Report) rampChart() *charts.Line {
	p := r.Params
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Plasma density profile",
			Subtitle: fmt.Sprintf("ramp start %.4g µm, length %.4g µm, propagation %.4g mm",
				p.Ramp.Start*1e6, p.Ramp.Length*1e6, p.Propagation*1e3),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "z (mm)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "n/n₀"}),
	)
	x := make([]float64, reportSamples)
	data := make([]opts.LineData, reportSamples)
	for i := range x {
		z := p.Propagation * float64(i) / float64(reportSamples-1)
		x[i] = z * 1e3
		data[i] = opts.LineData{Value: p.Ramp.Density(z)}
	}
	line.SetXAxis(x)
	line.AddSeries("n/n₀", data)
	return line
}

// dumpChart charts the measured on-axis field, or returns nil when no
// usable dump is attached.
func (r *Report) dumpChart() *charts.Line {
	if r.Dump == nil {
		return nil
	}
	onAxis, err := r.Dump.OnAxis("Ez")
	if err != nil {
		return nil
	}
	subtitle := fmt.Sprintf("derived λp = %.4g µm", r.Params.Plasma.Wavelength*1e6)
	if measured, err := r.Dump.MeasureWavelength(); err == nil {
		subtitle = fmt.Sprintf("measured λ = %.4g µm, %s", measured*1e6, subtitle)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Engine on-axis Ez, step %d", r.Dump.Iteration),
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "z (µm)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Ez (GV/m)"}),
	)
	x := make([]float64, len(onAxis))
	data := make([]opts.LineData, len(onAxis))
	for i, z := range r.Dump.ZCoords() {
		x[i] = z * 1e6
		data[i] = opts.LineData{Value: onAxis[i] * 1e-9}
	}
	line.SetXAxis(x)
	line.AddSeries("Ez", data)
	return line
}
