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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReportWriteHTML(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	r := NewReport(c, p)

	var b bytes.Buffer
	if err := r.WriteHTML(&b); err != nil {
		t.Fatal(err)
	}
	s := b.String()
	for _, want := range []string{
		"echarts",
		"On-axis wakefield",
		"Bubble boundary",
		"Plasma density profile",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("report is missing %q", want)
		}
	}
	if strings.Contains(s, "Engine on-axis Ez") {
		t.Error("report charts a dump that was never attached")
	}
}

func TestReportWithDump(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	d, err := Synthesize(c, p, p.Grid.Steps-1)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReport(c, p)
	r.Dump = d

	var b bytes.Buffer
	if err := r.WriteHTML(&b); err != nil {
		t.Fatal(err)
	}
	s := b.String()
	if !strings.Contains(s, "Engine on-axis Ez") {
		t.Error("report is missing the dump chart")
	}
	if !strings.Contains(s, "derived λp") {
		t.Error("report is missing the wavelength comparison")
	}
}

func TestReportWriteFile(t *testing.T) {
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.html")
	if err := NewReport(c, p).WriteFile(path); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("report file is empty")
	}
}
