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

// Package config is the CLI's TOML configuration (component C16),
// following the package-level Defaults-struct convention used by
// probeconfig.Config in the wider corpus this project was split off from.
package config

import (
	"os"

	"github.com/naoina/toml"
)

// Config holds everything the CLI needs to boot an interpreter that isn't
// better expressed as a flag.
type Config struct {
	// ParamFile is the path to the leveldb-backed parameter store. Empty
	// means run with an in-memory, non-persisted store.
	ParamFile string

	// QueueDepth sizes the downstream motion queue.
	QueueDepth int

	// LogLevel is one of trace/debug/info/warn/error/crit.
	LogLevel string

	// Color forces ANSI color on/off in log output; nil leaves the
	// terminal auto-detection in gclog alone.
	Color *bool
}

// Defaults contains the out-of-the-box settings for gcode-canon.
var Defaults = Config{
	ParamFile:  "gcode-canon.param.db",
	QueueDepth: 64,
	LogLevel:   "info",
}

// Load reads a TOML file at path into a copy of Defaults. A missing file
// is not an error: Defaults alone is a usable configuration.
func Load(path string) (Config, error) {
	cfg := Defaults
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
