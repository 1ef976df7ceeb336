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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Monitor serves the progress of an engine run over HTTP. Progress is
// inferred from the dump files present in the dump directory, so the
// monitor needs no cooperation from the engine. It pushes progress
// samples over a websocket at /progress, reports them as JSON at
// /status, and renders plots of the latest dump at /plot/field and
// /plot/lineout.
type Monitor struct {
	// DumpDir is the directory watched for engine dumps.
	DumpDir string

	// Deck, when set, provides the expected total step count.
	Deck *Deck

	// Poll is the interval between progress samples. Zero means
	// two seconds.
	Poll time.Duration

	// Log receives connection events. If nil, the standard logger
	// is used.
	Log logrus.FieldLogger

	mux      *http.ServeMux
	upgrader websocket.Upgrader
}

// NewMonitor returns a monitor watching dumpDir. The deck may be nil
// if the total step count is not known.
func NewMonitor(dumpDir string, deck *Deck) *Monitor {
	m := &Monitor{
		DumpDir: dumpDir,
		Deck:    deck,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	m.mux = http.NewServeMux()
	m.mux.HandleFunc("/", m.indexHandler)
	m.mux.HandleFunc("/status", m.statusHandler)
	m.mux.HandleFunc("/progress", m.progressHandler)
	m.mux.HandleFunc("/plot/field", m.fieldHandler)
	m.mux.HandleFunc("/plot/lineout", m.lineoutHandler)
	return m
}

func (m *Monitor) logger() logrus.FieldLogger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

func (m *Monitor) poll() time.Duration {
	if m.Poll <= 0 {
		return 2 * time.Second
	}
	return m.Poll
}

// ServeHTTP implements http.Handler.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

// ListenAndServe serves the monitor at addr until the context is
// canceled.
func (m *Monitor) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: m}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	m.logger().WithField("addr", addr).Info("monitor listening")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Progress is one progress sample pushed to monitor clients.
type Progress struct {
	// Steps lists the dump steps present so far.
	Steps []int `json:"steps"`
	// Latest is the most recent dump step, or -1 if there is none.
	Latest int `json:"latest"`
	// Total is the expected total step count, when known.
	Total int `json:"total,omitempty"`
	// Done reports whether the final dump has been written.
	Done bool `json:"done"`
}

func (m *Monitor) progress() (*Progress, error) {
	steps, err := DumpSteps(m.DumpDir)
	if err != nil {
		return nil, err
	}
	p := &Progress{Steps: steps, Latest: -1}
	if len(steps) > 0 {
		p.Latest = steps[len(steps)-1]
	}
	if m.Deck != nil {
		p.Total = m.Deck.Grid.Steps
		p.Done = p.Latest >= m.Deck.Grid.Steps-1
	}
	return p, nil
}

func (m *Monitor) latestDump() (*Dump, error) {
	steps, err := DumpSteps(m.DumpDir)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, errors.New("pwfa: no dumps written yet")
	}
	return OpenDump(DumpPath(m.DumpDir, steps[len(steps)-1]))
}

func (m *Monitor) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(monitorIndex))
}

func (m *Monitor) statusHandler(w http.ResponseWriter, r *http.Request) {
	p, err := m.progress()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// progressHandler pushes progress samples until the run finishes or
// the client goes away.
func (m *Monitor) progressHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger().WithField("addr", r.RemoteAddr).Error(err)
		return
	}
	defer conn.Close()
	log := m.logger().WithField("addr", r.RemoteAddr)
	log.Info("monitor client connected")

	tick := time.NewTicker(m.poll())
	defer tick.Stop()
	for {
		p, err := m.progress()
		if err != nil {
			log.Error(err)
			return
		}
		if err := conn.WriteJSON(p); err != nil {
			log.Info("monitor client disconnected")
			return
		}
		if p.Done {
			return
		}
		<-tick.C
	}
}

func (m *Monitor) fieldHandler(w http.ResponseWriter, r *http.Request) {
	d, err := m.latestDump()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := d.PlotField(w, plotName(r)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) lineoutHandler(w http.ResponseWriter, r *http.Request) {
	d, err := m.latestDump()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := d.PlotOnAxis(w, plotName(r)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func plotName(r *http.Request) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return "Ez"
}

const monitorIndex = `<!DOCTYPE html>
<html>
<head><title>PWFA run monitor</title></head>
<body>
<h1>PWFA run monitor</h1>
<p id="status">waiting for dumps</p>
<div><img id="field" src="/plot/field" alt="no field dump yet"></div>
<div><img id="lineout" src="/plot/lineout" alt="no field dump yet"></div>
<script>
var ws = new WebSocket("ws://" + location.host + "/progress");
ws.onmessage = function (ev) {
	var p = JSON.parse(ev.data);
	var s = "dumps at steps [" + p.steps + "]";
	if (p.total) {
		s += " of " + p.total + " steps";
	}
	if (p.done) {
		s += ", run finished";
	}
	document.getElementById("status").textContent = s;
	document.getElementById("field").src = "/plot/field?t=" + Date.now();
	document.getElementById("lineout").src = "/plot/lineout?t=" + Date.now();
};
</script>
</body>
</html>
`
