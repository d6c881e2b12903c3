// Copyright 2024 The gcode-canon Authors
// This file is part of gcode-canon.
//
// gcode-canon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gcode-canon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gcode-canon. If not, see <http://www.gnu.org/licenses/>.

// Package queue is the downstream motion queue (component C14): it
// decouples the single-threaded interpreter from a potentially slower
// Machine collaborator by handing completed commands to a bounded channel
// and draining it on its own goroutine, the way gcode-canon.c's
// move_machine_queue() flushes a batch of pending moves between blocks
// without the interpreter itself blocking on the machine.
package queue

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/canonical-gcode/gcode-canon/gclog"
	"github.com/canonical-gcode/gcode-canon/gcodeio"
)

// command is a thunk capturing one Machine call, queued in submission
// order.
type command func(gcodeio.Machine) error

// Queue wraps a gcodeio.Machine so the interpreter's calls return
// immediately; a background goroutine drains them onto the real Machine
// in order.
type Queue struct {
	machine gcodeio.Machine
	ch      chan command
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// New starts a Queue of the given depth in front of machine.
func New(machine gcodeio.Machine, depth int) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	q := &Queue{machine: machine, ch: make(chan command, depth), group: g, cancel: cancel}
	g.Go(func() error { return q.drain(ctx) })
	return q
}

func (q *Queue) drain(ctx context.Context) error {
	for {
		select {
		case cmd, ok := <-q.ch:
			if !ok {
				return nil
			}
			if err := cmd(q.machine); err != nil {
				gclog.Error("queued machine command failed", "err", err)
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush closes the submission channel and waits for the drain goroutine
// to finish, mirroring the original's end-of-program queue flush.
func (q *Queue) Flush() error {
	close(q.ch)
	return q.group.Wait()
}

// Stop cancels the drain goroutine without waiting for the queue to
// empty. The interpreter does not call it; M112 only changes the run state.
func (q *Queue) Stop() {
	q.cancel()
}

func (q *Queue) submit(cmd command) error {
	q.ch <- cmd
	return nil
}

func (q *Queue) Rapid(x, y, z float64) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Rapid(x, y, z) })
}
func (q *Queue) Linear(x, y, z, feed float64) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Linear(x, y, z, feed) })
}
func (q *Queue) Arc(x, y, z, i, j, k, feed float64, clockwise bool) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Arc(x, y, z, i, j, k, feed, clockwise) })
}
func (q *Queue) Home(x, y, z float64) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Home(x, y, z) })
}
func (q *Queue) Dwell(seconds float64) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Dwell(seconds) })
}
func (q *Queue) Spindle(cw bool, speed float64) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Spindle(cw, speed) })
}
func (q *Queue) SpindleStop() error {
	return q.submit(func(m gcodeio.Machine) error { return m.SpindleStop() })
}
func (q *Queue) Coolant(mist, flood bool) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Coolant(mist, flood) })
}
func (q *Queue) ToolChange(index uint16) error {
	return q.submit(func(m gcodeio.Machine) error { return m.ToolChange(index) })
}
func (q *Queue) Aux(mWord uint32) error {
	return q.submit(func(m gcodeio.Machine) error { return m.Aux(mWord) })
}
func (q *Queue) Running() bool { return q.machine.Running() }
