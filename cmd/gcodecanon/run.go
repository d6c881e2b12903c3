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

package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/canonical-gcode/gcode-canon/gcodeinterp"
	"github.com/canonical-gcode/gcode-canon/gcodeio"
	"github.com/canonical-gcode/gcode-canon/gcodelex"
	"github.com/canonical-gcode/gcode-canon/gcodeparam"
	"github.com/canonical-gcode/gcode-canon/gcodetool"
	"github.com/canonical-gcode/gcode-canon/paramstore/leveldbstore"
	"github.com/canonical-gcode/gcode-canon/queue"
)

func runAction(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return errors.New("usage: gcodecanon run [file.nc]")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	applyLogLevel(cfg)

	file := os.Stdin
	if ctx.NArg() == 1 {
		f, err := os.Open(ctx.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		file = f
	}

	params := gcodeparam.New(nil)
	var persist *leveldbstore.Store
	if cfg.ParamFile != "" {
		persist, err = leveldbstore.Open(cfg.ParamFile)
		if err != nil {
			return err
		}
		defer persist.Close()
		params = gcodeparam.New(persist)
		if err := persist.Load(params); err != nil {
			return err
		}
	}
	tools := gcodetool.New(params)

	input := gcodeio.NewFileInput(file, nil)
	machine := queue.New(gcodeio.NewTracingMachine(), cfg.QueueDepth)

	ip := gcodeinterp.New(params, tools, input, machine)
	if err := ip.Run(); err != nil {
		return err
	}
	return machine.Flush()
}

func tokensAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: gcodecanon tokens <file.nc>")
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	params := gcodeparam.New(nil)
	const letters = "GMXYZIJKFSRPQABCDHTLN"
	for _, raw := range splitLines(string(data)) {
		block := stripForDump(raw)
		if block == "" {
			continue
		}
		lx := gcodelex.New(block, params)
		fmt.Printf("%s\n", block)
		for _, word := range letters {
			if lx.HasWord(byte(word)) > 0 {
				fmt.Printf("  %c=%v\n", word, lx.GetReal(byte(word)))
			}
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func stripForDump(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\r' {
			continue
		}
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		b = append(b, c)
	}
	return string(b)
}
