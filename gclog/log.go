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

// Package gclog is a small structured, leveled logger in the style used
// throughout the chain-client family of tools this project was split off
// from: a package-level Logger with With(...) context and Info/Warn/Error
// calls taking alternating key/value pairs.
package gclog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a logging severity, ordered from most to least verbose.
type Level int

const (
	LvlTrace Level = iota
	LvlDebug
	LvlInfo
	LvlWarn
	LvlError
	LvlCrit
)

func (l Level) String() string {
	switch l {
	case LvlTrace:
		return "TRACE"
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT"
	default:
		return "???"
	}
}

var levelColor = map[Level]*color.Color{
	LvlTrace: color.New(color.FgWhite),
	LvlDebug: color.New(color.FgCyan),
	LvlInfo:  color.New(color.FgGreen),
	LvlWarn:  color.New(color.FgYellow),
	LvlError: color.New(color.FgRed),
	LvlCrit:  color.New(color.FgRed, color.Bold),
}

// Record is one emitted log line.
type Record struct {
	Time  time.Time
	Lvl   Level
	Msg   string
	Ctx   []interface{}
	Call  stack.Call // zero value when no caller was captured
	hasCall bool
}

// Logger emits Records carrying persistent context established by With.
type Logger struct {
	ctx []interface{}
}

var (
	mu        sync.Mutex
	out       io.Writer = colorable.NewColorableStdout()
	useColor            = isatty.IsTerminal(os.Stdout.Fd())
	threshold           = LvlInfo
)

// SetOutput redirects where rendered records are written.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the minimum level that is rendered.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	threshold = l
}

// SetColor overrides the TTY-detected default for whether rendered records
// carry ANSI color codes.
func SetColor(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	useColor = enabled
}

// New returns a root Logger with no persistent context.
func New() Logger { return Logger{} }

// With returns a derived Logger that always includes the given key/value
// pairs in addition to whatever is passed to a specific call.
func (l Logger) With(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return Logger{ctx: merged}
}

func (l Logger) write(lvl Level, captureCaller bool, msg string, ctx ...interface{}) {
	if lvl < threshold {
		return
	}
	rec := Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  append(append([]interface{}{}, l.ctx...), ctx...),
	}
	if captureCaller {
		// Skip write and the level method, so the recorded frame is the
		// level method's caller.
		rec.Call = stack.Caller(2)
		rec.hasCall = true
	}
	render(rec)
}

func (l Logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, false, msg, ctx...) }
func (l Logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, false, msg, ctx...) }
func (l Logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, false, msg, ctx...) }
func (l Logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, true, msg, ctx...) }
func (l Logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, true, msg, ctx...) }
func (l Logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, true, msg, ctx...) }

// root is the package-level Logger used by the free functions below, kept
// for call sites that don't need their own persistent context — mirrors
// the package-level log.Info/log.Warn convention the rest of the corpus
// uses.
var root = New()

func Trace(msg string, ctx ...interface{}) { root.write(LvlTrace, false, msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.write(LvlDebug, false, msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.write(LvlInfo, false, msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.write(LvlWarn, true, msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.write(LvlError, true, msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.write(LvlCrit, true, msg, ctx...) }

func render(rec Record) {
	mu.Lock()
	defer mu.Unlock()

	ts := rec.Time.Format("15:04:05.000")
	var line string
	if useColor {
		c := levelColor[rec.Lvl]
		line = fmt.Sprintf("%s %-5s %s", ts, c.Sprint(rec.Lvl.String()), rec.Msg)
	} else {
		line = fmt.Sprintf("%s %-5s %s", ts, rec.Lvl.String(), rec.Msg)
	}
	for i := 0; i+1 < len(rec.Ctx); i += 2 {
		line += fmt.Sprintf(" %v=%v", rec.Ctx[i], rec.Ctx[i+1])
	}
	if rec.hasCall {
		line += fmt.Sprintf(" caller=%+v", rec.Call)
	}
	fmt.Fprintln(out, line)
}
