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
	"image/color"
	"io"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// MidpointNormalize maps v onto [0, 1] by piecewise-linear
// interpolation over [vmin, mid, vmax] → [0, 0.5, 1]. Values below
// vmin map to 0 and values above vmax map to 1. It is used to pin the
// middle color of a diverging color map to a physically meaningful
// value, usually zero, when the data range is not symmetric about it.
func MidpointNormalize(v, vmin, mid, vmax float64) float64 {
	switch {
	case v <= vmin:
		return 0
	case v >= vmax:
		return 1
	case v < mid:
		return 0.5 * (v - vmin) / (mid - vmin)
	default:
		return 0.5 + 0.5*(v-mid)/(vmax-mid)
	}
}

// midpointColorMap wraps a unit-range color map so that its middle
// color falls on the value mid rather than halfway between Min and
// Max. The two halves of the underlying map cover [Min, mid] and
// [mid, Max] linearly.
type midpointColorMap struct {
	base     palette.ColorMap
	mid      float64
	min, max float64
}

func newMidpointColorMap(base palette.ColorMap, mid float64) *midpointColorMap {
	base.SetMin(0)
	base.SetMax(1)
	return &midpointColorMap{base: base, mid: mid}
}

// At returns the color associated with v.
func (m *midpointColorMap) At(v float64) (color.Color, error) {
	return m.base.At(MidpointNormalize(v, m.min, m.mid, m.max))
}

func (m *midpointColorMap) Min() float64       { return m.min }
func (m *midpointColorMap) SetMin(v float64)   { m.min = v }
func (m *midpointColorMap) Max() float64       { return m.max }
func (m *midpointColorMap) SetMax(v float64)   { m.max = v }
func (m *midpointColorMap) Alpha() float64     { return m.base.Alpha() }
func (m *midpointColorMap) SetAlpha(a float64) { m.base.SetAlpha(a) }

// Palette samples the map at the centers of the given number of
// equal-width bins between Min and Max.
func (m *midpointColorMap) Palette(colors int) palette.Palette {
	cols := make(colorPalette, colors)
	for i := range cols {
		v := m.min + (float64(i)+0.5)*(m.max-m.min)/float64(colors)
		c, err := m.At(v)
		if err != nil {
			// Sample points are inside [Min, Max] and the base map
			// spans the whole normalized range.
			panic(err)
		}
		cols[i] = c
	}
	return cols
}

type colorPalette []color.Color

func (p colorPalette) Colors() []color.Color { return p }

// fieldGrid adapts a dump field to the heat map grid interface, with
// both axes in microns.
type fieldGrid struct {
	z, r []float64
	data *sparse.DenseArray
}

func newFieldGrid(d *Dump, data *sparse.DenseArray) fieldGrid {
	g := fieldGrid{z: d.ZCoords(), r: d.RCoords(), data: data}
	for i := range g.z {
		g.z[i] *= 1e6
	}
	for i := range g.r {
		g.r[i] *= 1e6
	}
	return g
}

func (g fieldGrid) Dims() (c, r int)   { return len(g.z), len(g.r) }
func (g fieldGrid) Z(c, r int) float64 { return g.data.Get(r, c) }
func (g fieldGrid) X(c int) float64    { return g.z[c] }
func (g fieldGrid) Y(r int) float64    { return g.r[r] }

func fieldRange(a *sparse.DenseArray) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range a.Elements {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

// PlotField renders the named field of the dump as an r–z heat map in
// PNG format, with a diverging palette centered on zero and a color
// bar underneath.
func (d *Dump) PlotField(w io.Writer, name string) error {
	fv, ok := d.Fields[name]
	if !ok {
		return fmt.Errorf("pwfa: dump has no field %s", name)
	}
	min, max := fieldRange(fv.Data)
	// The palette midpoint sits at zero, so the range must include it.
	if min > 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	if min == max {
		min, max = -1, 1
	}
	cm := newMidpointColorMap(moreland.SmoothBlueRed(), 0)
	cm.SetMin(min)
	cm.SetMax(max)

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s (%s), step %d", name, fv.Units, d.Iteration)
	p.X.Label.Text = "z (µm)"
	p.Y.Label.Text = "r (µm)"
	p.Add(plotter.NewHeatMap(newFieldGrid(d, fv.Data), cm.Palette(255)))

	bar, err := plot.New()
	if err != nil {
		return err
	}
	bar.Add(&plotter.ColorBar{ColorMap: cm})
	bar.HideY()
	bar.X.Padding = 0

	const (
		width  = 6 * vg.Inch
		height = 4 * vg.Inch
		barH   = 0.75 * vg.Inch
	)
	img := vgimg.New(width, height+barH)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, 0, barH, 0))
	bar.Draw(draw.Crop(dc, 0, 0, 0, -height))
	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// PlotOnAxis writes a PNG line plot of the named field on the axis
// against z in microns.
func (d *Dump) PlotOnAxis(w io.Writer, name string) error {
	vals, err := d.OnAxis(name)
	if err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("On-axis %s, step %d", name, d.Iteration)
	p.X.Label.Text = "z (µm)"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", name, d.Fields[name].Units)
	xy := make(plotter.XYs, len(vals))
	for i, z := range d.ZCoords() {
		xy[i].X = z * 1e6
		xy[i].Y = vals[i]
	}
	if err := plotutil.AddLines(p, xy); err != nil {
		return err
	}
	return writePNG(p, w)
}

// PlotParticles writes a PNG scatter plot of the macroparticle
// positions of the named species, both axes in microns.
func (d *Dump) PlotParticles(w io.Writer, species string) error {
	set, ok := d.Particles[species]
	if !ok {
		return fmt.Errorf("pwfa: dump has no species %s", species)
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s particles, step %d", species, d.Iteration)
	p.X.Label.Text = "z (µm)"
	p.Y.Label.Text = "r (µm)"
	xy := make(plotter.XYs, set.Len())
	for i := range xy {
		xy[i].X = set.Z[i] * 1e6
		xy[i].Y = set.R[i] * 1e6
	}
	s, err := plotter.NewScatter(xy)
	if err != nil {
		return err
	}
	s.Color = color.NRGBA{0, 0, 0, 255}
	s.Radius = 0.75
	s.Shape = draw.CircleGlyph{}
	p.Add(s)
	return writePNG(p, w)
}

// PlotEz writes a PNG line plot of the on-axis longitudinal field in
// GV/m against ξ in microns.
func (pr *Profile) PlotEz(w io.Writer) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "On-axis wakefield"
	p.X.Label.Text = "ξ (µm)"
	p.Y.Label.Text = "Ez (GV/m)"
	xy := make(plotter.XYs, len(pr.Xi))
	for i, xi := range pr.Xi {
		xy[i].X = xi * 1e6
		xy[i].Y = pr.Ez[i] * 1e-9
	}
	if err := plotutil.AddLines(p, xy); err != nil {
		return err
	}
	return writePNG(p, w)
}

// PlotBoundary writes a PNG line plot of the bubble boundary radius in
// microns against ξ in microns.
func (pr *Profile) PlotBoundary(w io.Writer) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Bubble boundary"
	p.X.Label.Text = "ξ (µm)"
	p.Y.Label.Text = "r_b (µm)"
	xy := make(plotter.XYs, len(pr.Xi))
	for i, xi := range pr.Xi {
		xy[i].X = xi * 1e6
		xy[i].Y = pr.Rb[i] * 1e6
	}
	if err := plotutil.AddLines(p, xy); err != nil {
		return err
	}
	return writePNG(p, w)
}

// PlotBubble writes a PNG line plot of an integrated bubble boundary.
// Both axes are in plasma units, ξ and r_b in c/ω_p.
func PlotBubble(w io.Writer, xi, rb []float64) error {
	if len(xi) != len(rb) {
		return fmt.Errorf("pwfa: ξ and r_b lengths differ: %d != %d", len(xi), len(rb))
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Bubble boundary equation"
	p.X.Label.Text = "k_p ξ"
	p.Y.Label.Text = "k_p r_b"
	xy := make(plotter.XYs, len(xi))
	for i := range xy {
		xy[i].X = xi[i]
		xy[i].Y = rb[i]
	}
	if err := plotutil.AddLines(p, xy); err != nil {
		return err
	}
	return writePNG(p, w)
}

// PlotRamp writes a PNG line plot of the relative plasma density
// profile over the propagation distance.
func (p *Params) PlotRamp(w io.Writer, samples int) error {
	if samples < 2 {
		samples = 2
	}
	pl, err := plot.New()
	if err != nil {
		return err
	}
	pl.Title.Text = "Plasma density profile"
	pl.X.Label.Text = "z (mm)"
	pl.Y.Label.Text = "n/n₀"
	xy := make(plotter.XYs, samples)
	for i := range xy {
		z := p.Propagation * float64(i) / float64(samples-1)
		xy[i].X = z * 1e3
		xy[i].Y = p.Ramp.Density(z)
	}
	if err := plotutil.AddLines(pl, xy); err != nil {
		return err
	}
	pl.Y.Min = 0
	return writePNG(pl, w)
}

func writePNG(p *plot.Plot, w io.Writer) error {
	ww, hh := 5*vg.Inch, 3.5*vg.Inch
	wt, err := p.WriterTo(ww, hh, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
