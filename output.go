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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// FieldVar is one field map on the window grid.
type FieldVar struct {
	Description string             // variable description
	Units       string             // variable units
	Data        *sparse.DenseArray // data on [r, z]
}

// ParticleSet holds the phase space coordinates of the macroparticles
// of one species.
type ParticleSet struct {
	Z  []float64 // longitudinal positions [m]
	R  []float64 // radial positions [m]
	Uz []float64 // normalized longitudinal momenta γβ_z
	W  []float64 // macroparticle weights [electrons]
}

// Len returns the number of macroparticles.
func (p *ParticleSet) Len() int { return len(p.Z) }

// Dump holds one diagnostic dump from the engine: field maps on the
// (r, z) window grid plus the macroparticle phase space of each bunch
// species.
type Dump struct {
	Iteration int     // step at which the dump was taken
	Time      float64 // simulation time [s]

	// Window extent at dump time [m].
	Zmin, Zmax float64
	Rmin, Rmax float64

	Dz, Dr float64 // cell spacings [m]
	Nr, Nz int     // cell counts

	Fields    map[string]FieldVar
	Particles map[string]*ParticleSet
}

// AddField adds a field map to d. The data shape must be [Nr, Nz].
func (d *Dump) AddField(name, description, units string, data *sparse.DenseArray) {
	if d.Fields == nil {
		d.Fields = make(map[string]FieldVar)
	}
	d.Fields[name] = FieldVar{
		Description: description,
		Units:       units,
		Data:        data,
	}
}

// AddParticles adds the phase space of one species to d.
func (d *Dump) AddParticles(species string, p *ParticleSet) {
	if d.Particles == nil {
		d.Particles = make(map[string]*ParticleSet)
	}
	d.Particles[species] = p
}

// ZCoords returns the longitudinal cell center coordinates [m].
func (d *Dump) ZCoords() []float64 {
	out := make([]float64, d.Nz)
	for i := range out {
		out[i] = d.Zmin + (float64(i)+0.5)*d.Dz
	}
	return out
}

// RCoords returns the radial cell center coordinates [m].
func (d *Dump) RCoords() []float64 {
	out := make([]float64, d.Nr)
	for j := range out {
		out[j] = d.Rmin + (float64(j)+0.5)*d.Dr
	}
	return out
}

// OnAxis returns the on-axis profile of the named field: its first
// radial row, one value per longitudinal cell.
func (d *Dump) OnAxis(name string) ([]float64, error) {
	f, ok := d.Fields[name]
	if !ok {
		return nil, fmt.Errorf("pwfa: dump has no field %s", name)
	}
	out := make([]float64, d.Nz)
	for i := range out {
		out[i] = f.Data.Get(0, i)
	}
	return out, nil
}

// ReadDump reads one diagnostic dump from a netcdf file.
func ReadDump(rw cdf.ReaderWriterAt) (*Dump, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("pwfa: reading dump: %v", err)
	}
	o := new(Dump)

	iter, ok := f.Header.GetAttribute("", "iteration").([]int32)
	if !ok || len(iter) == 0 {
		return nil, fmt.Errorf("pwfa: dump attribute iteration is missing")
	}
	o.Iteration = int(iter[0])
	for _, attr := range []struct {
		name string
		dst  *float64
	}{
		{"time", &o.Time},
		{"zmin", &o.Zmin},
		{"zmax", &o.Zmax},
		{"rmin", &o.Rmin},
		{"rmax", &o.Rmax},
		{"dz", &o.Dz},
		{"dr", &o.Dr},
	} {
		v, ok := f.Header.GetAttribute("", attr.name).([]float64)
		if !ok || len(v) == 0 {
			return nil, fmt.Errorf("pwfa: dump attribute %s is missing", attr.name)
		}
		*attr.dst = v[0]
	}

	for _, v := range f.Header.Variables() {
		dims := f.Header.Dimensions(v)
		lengths := f.Header.Lengths(v)
		tmp := make([]float32, size(lengths))
		r := f.Reader(v, nil, nil)
		if _, err := r.Read(tmp); err != nil {
			return nil, fmt.Errorf("pwfa: reading dump variable %s: %v", v, err)
		}
		switch {
		case len(dims) == 2 && dims[0] == "r" && dims[1] == "z":
			o.Nr, o.Nz = lengths[0], lengths[1]
			data := sparse.ZerosDense(lengths...)
			for i, val := range tmp {
				data.Elements[i] = float64(val)
			}
			description, _ := f.Header.GetAttribute(v, "description").(string)
			units, _ := f.Header.GetAttribute(v, "units").(string)
			o.AddField(v, description, units, data)
		case len(dims) == 1 && strings.HasPrefix(dims[0], "np_"):
			species := strings.TrimPrefix(dims[0], "np_")
			if o.Particles == nil {
				o.Particles = make(map[string]*ParticleSet)
			}
			p := o.Particles[species]
			if p == nil {
				p = new(ParticleSet)
				o.Particles[species] = p
			}
			vals := make([]float64, len(tmp))
			for i, val := range tmp {
				vals[i] = float64(val)
			}
			switch strings.TrimPrefix(v, species+"_") {
			case "z":
				p.Z = vals
			case "r":
				p.R = vals
			case "uz":
				p.Uz = vals
			case "w":
				p.W = vals
			default:
				return nil, fmt.Errorf("pwfa: unexpected particle variable %s in dump", v)
			}
		default:
			return nil, fmt.Errorf("pwfa: unexpected variable %s in dump", v)
		}
	}
	return o, nil
}

// Write writes d to netcdf file w.
func (d *Dump) Write(w *os.File) error {
	// Sort the names so they write in the same order every time.
	fields := make([]string, 0, len(d.Fields))
	for n := range d.Fields {
		fields = append(fields, n)
	}
	sort.Strings(fields)
	species := make([]string, 0, len(d.Particles))
	for n := range d.Particles {
		species = append(species, n)
	}
	sort.Strings(species)

	dims := []string{"r", "z"}
	lengths := []int{d.Nr, d.Nz}
	for _, s := range species {
		dims = append(dims, "np_"+s)
		lengths = append(lengths, d.Particles[s].Len())
	}
	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "PWFA diagnostic dump")
	h.AddAttribute("", "iteration", []int32{int32(d.Iteration)})
	h.AddAttribute("", "time", []float64{d.Time})
	h.AddAttribute("", "zmin", []float64{d.Zmin})
	h.AddAttribute("", "zmax", []float64{d.Zmax})
	h.AddAttribute("", "rmin", []float64{d.Rmin})
	h.AddAttribute("", "rmax", []float64{d.Rmax})
	h.AddAttribute("", "dz", []float64{d.Dz})
	h.AddAttribute("", "dr", []float64{d.Dr})

	for _, name := range fields {
		f := d.Fields[name]
		h.AddVariable(name, []string{"r", "z"}, []float32{0})
		h.AddAttribute(name, "description", f.Description)
		h.AddAttribute(name, "units", f.Units)
	}
	for _, s := range species {
		for _, comp := range []string{"z", "r", "uz", "w"} {
			h.AddVariable(s+"_"+comp, []string{"np_" + s}, []float32{0})
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range fields {
		if err := writeNCF(f, name, d.Fields[name].Data.Elements); err != nil {
			return fmt.Errorf("pwfa: writing variable %s to netcdf file: %v", name, err)
		}
	}
	for _, s := range species {
		p := d.Particles[s]
		for _, c := range []struct {
			comp string
			vals []float64
		}{{"z", p.Z}, {"r", p.R}, {"uz", p.Uz}, {"w", p.W}} {
			if err := writeNCF(f, s+"_"+c.comp, c.vals); err != nil {
				return fmt.Errorf("pwfa: writing variable %s to netcdf file: %v", s+"_"+c.comp, err)
			}
		}
	}
	return cdf.UpdateNumRecs(w)
}

// WriteFile writes d to the named netcdf file.
func (d *Dump) WriteFile(path string) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pwfa: creating dump file: %v", err)
	}
	if err := d.Write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// OpenDump reads the named dump file.
func OpenDump(path string) (*Dump, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pwfa: opening dump file: %v", err)
	}
	defer r.Close()
	return ReadDump(r)
}

func writeNCF(f *cdf.File, Var string, data []float64) error {
	end := f.Header.Lengths(Var)
	if len(data) != size(end) {
		return fmt.Errorf("dims are %d but array length is %d", size(end), len(data))
	}
	data32 := make([]float32, len(data))
	for i, e := range data {
		data32[i] = float32(e)
	}
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

func size(lengths []int) int {
	n := 1
	for _, v := range lengths {
		n *= v
	}
	return n
}

// DumpPath returns the path of the dump file for the given step.
func DumpPath(dir string, step int) string {
	return filepath.Join(dir, fmt.Sprintf("data%08d.nc", step))
}

// DumpSteps returns the sorted step numbers of the dump files present
// in dir.
func DumpSteps(dir string) ([]int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "data*.nc"))
	if err != nil {
		return nil, fmt.Errorf("pwfa: scanning dump directory: %v", err)
	}
	var steps []int
	for _, p := range paths {
		base := filepath.Base(p)
		num := strings.TrimSuffix(strings.TrimPrefix(base, "data"), ".nc")
		step, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	sort.Ints(steps)
	return steps, nil
}
