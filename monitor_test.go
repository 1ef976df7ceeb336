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
	"encoding/json"
	"image/png"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// monitorFixture writes the initial dump of a small run and returns a
// monitor over it together with the run's configuration.
func monitorFixture(t *testing.T) (*Monitor, *SimConfig, *Params, string) {
	t.Helper()
	c := smallConfig()
	p, err := c.Derive()
	if err != nil {
		t.Fatal(err)
	}
	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	d, err := Synthesize(c, p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteFile(DumpPath(dir, 0)); err != nil {
		t.Fatal(err)
	}
	m := NewMonitor(dir, NewDeck(c, p, dir))
	m.Poll = 10 * time.Millisecond
	return m, c, p, dir
}

func TestMonitorStatus(t *testing.T) {
	m, _, p, dir := monitorFixture(t)
	defer os.RemoveAll(dir)
	srv := httptest.NewServer(m)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint returned %d", resp.StatusCode)
	}
	var prog Progress
	if err := json.NewDecoder(resp.Body).Decode(&prog); err != nil {
		t.Fatal(err)
	}
	if prog.Latest != 0 {
		t.Errorf("latest step is %d; want 0", prog.Latest)
	}
	if prog.Total != p.Grid.Steps {
		t.Errorf("total is %d; want %d", prog.Total, p.Grid.Steps)
	}
	if prog.Done {
		t.Error("run reported done after the initial dump")
	}
}

func TestMonitorProgress(t *testing.T) {
	m, c, p, dir := monitorFixture(t)
	defer os.RemoveAll(dir)
	srv := httptest.NewServer(m)
	defer srv.Close()

	url := strings.Replace(srv.URL, "http", "ws", 1) + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var prog Progress
	if err := conn.ReadJSON(&prog); err != nil {
		t.Fatal(err)
	}
	if prog.Latest != 0 || prog.Done {
		t.Errorf("first sample is %+v; want latest 0, not done", prog)
	}

	// Complete the run and wait for the monitor to notice.
	final, err := Synthesize(c, p, p.Grid.Steps-1)
	if err != nil {
		t.Fatal(err)
	}
	if err := final.WriteFile(DumpPath(dir, p.Grid.Steps-1)); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !prog.Done {
		if err := conn.ReadJSON(&prog); err != nil {
			t.Fatalf("run never reported done: %v", err)
		}
	}
	if prog.Latest != p.Grid.Steps-1 {
		t.Errorf("final sample is %+v; want latest %d", prog, p.Grid.Steps-1)
	}
}

func TestMonitorPlots(t *testing.T) {
	m, _, _, dir := monitorFixture(t)
	defer os.RemoveAll(dir)
	srv := httptest.NewServer(m)
	defer srv.Close()

	for _, path := range []string{"/plot/field", "/plot/lineout?name=rho"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s returned %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s content type is %s", path, ct)
		}
		if _, err := png.Decode(resp.Body); err != nil {
			t.Errorf("%s did not return a PNG: %v", path, err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/plot/field?name=nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("expected an error for a missing field")
	}
}

func TestMonitorNoDumps(t *testing.T) {
	dir, err := ioutil.TempDir("", "pwfa")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	srv := httptest.NewServer(NewMonitor(dir, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plot/field")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("plot with no dumps returned %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var prog Progress
	if err := json.NewDecoder(resp.Body).Decode(&prog); err != nil {
		t.Fatal(err)
	}
	if prog.Latest != -1 || prog.Done {
		t.Errorf("empty directory progress is %+v; want latest -1", prog)
	}
}

func TestMonitorIndex(t *testing.T) {
	m, _, _, dir := monitorFixture(t)
	defer os.RemoveAll(dir)
	srv := httptest.NewServer(m)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "PWFA run monitor") {
		t.Error("index page is missing the title")
	}

	resp, err = http.Get(srv.URL + "/bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path returned %d", resp.StatusCode)
	}
}
