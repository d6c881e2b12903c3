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

// Command gcodecanon is the CLI front-end (component C15) around the
// interpreter core: it owns the one piece of real concurrency in the
// whole program, the downstream motion queue, and leaves the interpreter
// itself strictly single-threaded.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/canonical-gcode/gcode-canon/config"
	"github.com/canonical-gcode/gcode-canon/gclog"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file",
		Value: "gcode-canon.toml",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "trace|debug|info|warn|error|crit",
	}
	queueDepthFlag = cli.IntFlag{
		Name:  "queue-depth",
		Usage: "downstream motion queue depth",
	}
	colorFlag = cli.BoolFlag{
		Name:  "color",
		Usage: "force ANSI color in log output on, overriding terminal auto-detection",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "force ANSI color in log output off, overriding terminal auto-detection",
	}

	runCommand = cli.Command{
		Name:      "run",
		Usage:     "interpret a G-Code program (standard input when no file is given)",
		ArgsUsage: "[file.nc]",
		Action:    runAction,
		Flags:     []cli.Flag{configFlag, logLevelFlag, queueDepthFlag, colorFlag, noColorFlag},
	}
	tokensCommand = cli.Command{
		Name:      "tokens",
		Usage:     "dump each block's recognized words without running it",
		ArgsUsage: "<file.nc>",
		Action:    tokensAction,
	}
	toolsCommand = cli.Command{
		Name:   "tools",
		Usage:  "list the tool table from a parameter file",
		Action: toolsAction,
		Flags:  []cli.Flag{configFlag},
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "gcodecanon"
	app.Usage = "a canonical G-Code interpreter"
	app.Commands = []cli.Command{runCommand, tokensCommand, toolsCommand}

	if err := app.Run(os.Args); err != nil {
		gclog.Error("fatal", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return cfg, err
	}
	if lvl := ctx.String(logLevelFlag.Name); lvl != "" {
		cfg.LogLevel = lvl
	}
	if d := ctx.Int(queueDepthFlag.Name); d > 0 {
		cfg.QueueDepth = d
	}
	if ctx.Bool(colorFlag.Name) {
		on := true
		cfg.Color = &on
	}
	if ctx.Bool(noColorFlag.Name) {
		off := false
		cfg.Color = &off
	}
	return cfg, nil
}

func applyLogLevel(cfg config.Config) {
	switch cfg.LogLevel {
	case "trace":
		gclog.SetLevel(gclog.LvlTrace)
	case "debug":
		gclog.SetLevel(gclog.LvlDebug)
	case "warn":
		gclog.SetLevel(gclog.LvlWarn)
	case "error":
		gclog.SetLevel(gclog.LvlError)
	case "crit":
		gclog.SetLevel(gclog.LvlCrit)
	default:
		gclog.SetLevel(gclog.LvlInfo)
	}
	if cfg.Color != nil {
		gclog.SetColor(*cfg.Color)
	}
}
