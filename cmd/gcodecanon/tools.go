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
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/canonical-gcode/gcode-canon/gcodeparam"
	"github.com/canonical-gcode/gcode-canon/gcodetool"
	"github.com/canonical-gcode/gcode-canon/paramstore/leveldbstore"
)

func toolsAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.ParamFile == "" {
		return fmt.Errorf("no parameter file configured")
	}
	persist, err := leveldbstore.Open(cfg.ParamFile)
	if err != nil {
		return err
	}
	defer persist.Close()

	params := gcodeparam.New(persist)
	if err := persist.Load(params); err != nil {
		return err
	}
	tools := gcodetool.New(params)

	installed := tools.Installed()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Index", "Diameter", "Length"})
	for i := 1; i <= installed; i++ {
		t := tools.Fetch(uint16(i))
		table.Append([]string{
			fmt.Sprintf("%d", t.Index),
			fmt.Sprintf("%.4f", t.Diameter),
			fmt.Sprintf("%.4f", t.Length),
		})
	}
	table.Render()
	return nil
}
