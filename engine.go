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
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine launches the external simulation engine on a parameter deck.
// The engine is invoked as Command Args... deckPath and is expected to
// write its dumps to the directory named in the deck.
type Engine struct {
	// Command is the engine executable. It must be set.
	Command string

	// Args are extra arguments placed before the deck path.
	Args []string

	// Stdout and Stderr receive the engine's output. Either may be
	// nil, in which case that stream is discarded.
	Stdout io.Writer
	Stderr io.Writer

	// Log receives lifecycle events. If nil, the standard logger
	// is used.
	Log logrus.FieldLogger
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// Run launches the engine on the given deck file and waits for it to
// finish. Canceling the context kills the engine process.
func (e *Engine) Run(ctx context.Context, deckPath string) error {
	if e.Command == "" {
		return errors.New("pwfa: engine command not set")
	}
	args := append(append([]string{}, e.Args...), deckPath)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	log := e.logger()
	log.WithFields(logrus.Fields{
		"command": e.Command,
		"deck":    deckPath,
	}).Info("starting engine")

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("pwfa: engine run canceled: %v", ctx.Err())
		}
		return fmt.Errorf("pwfa: engine %s: %v", e.Command, err)
	}
	log.WithField("elapsed", time.Since(start)).Info("engine finished")
	return nil
}

// PrepareDumpDir removes dumps left over from a previous run and
// recreates the directory, so that step discovery only ever sees the
// current run.
func PrepareDumpDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, os.ModePerm)
}
