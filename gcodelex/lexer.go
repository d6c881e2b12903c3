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

// Package gcodelex implements the block lexer (component C3): word-letter
// lookup with parameter (#nnn) indirection over a single, already
// whitespace-stripped block string.
//
// Grounded on _examples/original_source/gcode-state.c's have_gcode_word /
// get_gcode_word_real / get_gcode_word_integer / skip_gcode_digits, and on
// the single-pass scanning style of
// _examples/ProbeChain-go-probe/go-probe-master/probe-lang/lang/lexer/lexer.go.
package gcodelex

import (
	"math"
	"strconv"
	"strings"

	"github.com/canonical-gcode/gcode-canon/gcodeerr"
)

// ParamSource resolves #nnn parameter indirection. gcodeparam.Store
// satisfies this.
type ParamSource interface {
	Fetch(n uint16) float64
}

// NoMatch is HasWord's return value when letter is absent or no candidate
// matched.
const NoMatch = 0

// ZeroMatch is what HasWord returns when the matching candidate's value is
// the integer 0, so that "matched as 0" can be told apart from "no match".
const ZeroMatch = 100

// Lexer scans word letters in a single block string. Its {letter,pos}
// cache is only valid for the block it was created for; build a new Lexer
// per block rather than mutating one across blocks.
type Lexer struct {
	block   string
	params  ParamSource
	cacheAt byte // cached word letter, 0 ('\x00') means "no cache yet"
	cachePos int // index of the cached letter's occurrence in block, -1 if absent
}

// New creates a Lexer over block (whitespace already stripped by the
// caller) using params to resolve #nnn indirection.
func New(block string, params ParamSource) *Lexer {
	return &Lexer{block: block, params: params, cachePos: -2}
}

// refresh repositions the cache at the first occurrence of word, unless it
// is already cached there.
func (l *Lexer) refresh(word byte) bool {
	if l.cacheAt != word || l.cachePos == -2 {
		l.cacheAt = word
		l.cachePos = strings.IndexByte(l.block, word)
	}
	return l.cachePos >= 0
}

// HasWord returns 0 if letter is absent from the block. With no
// candidates, it returns 1 as a presence test. Otherwise it returns the
// first candidate (in the order given) whose integer value appears as the
// argument of any occurrence of letter in the block, or 0 if none match. A
// matching value of 0 is returned as ZeroMatch (100) to disambiguate from
// "not found".
func (l *Lexer) HasWord(letter byte, candidates ...int) int {
	if !l.refresh(letter) {
		return NoMatch
	}
	if len(candidates) == 0 {
		return 1
	}
	for _, want := range candidates {
		pos := l.cachePos
		for pos >= 0 {
			v, _ := readInteger(l.block[pos+1:], l.params)
			if int(v) == want {
				if want == 0 {
					return ZeroMatch
				}
				return want
			}
			rel := strings.IndexByte(l.block[pos+1:], letter)
			if rel < 0 {
				pos = -1
			} else {
				pos = pos + 1 + rel
			}
		}
	}
	return NoMatch
}

// GetReal returns letter's argument as a float64, or NaN if absent.
func (l *Lexer) GetReal(letter byte) float64 {
	if !l.refresh(letter) {
		return math.NaN()
	}
	v, _ := readReal(l.block[l.cachePos+1:], l.params)
	return v
}

// GetRealDefault is GetReal but substitutes d when letter is absent.
func (l *Lexer) GetRealDefault(letter byte, d float64) float64 {
	v := l.GetReal(letter)
	if math.IsNaN(v) {
		return d
	}
	return v
}

// GetInteger returns letter's argument as a uint32, or math.MaxUint32 if
// absent.
func (l *Lexer) GetInteger(letter byte) uint32 {
	if !l.refresh(letter) {
		return math.MaxUint32
	}
	v, _ := readInteger(l.block[l.cachePos+1:], l.params)
	return v
}

// GetIntegerDefault is GetInteger but substitutes d when letter is absent.
func (l *Lexer) GetIntegerDefault(letter byte, d uint32) uint32 {
	v := l.GetInteger(letter)
	if v == math.MaxUint32 {
		return d
	}
	return v
}

// readInteger parses the integer at the front of s, following #nnn
// indirection (recursively, so ##12 is the parameter whose number is the
// value of parameter 12). It returns the value and the number of bytes of
// s consumed by the outermost token, including any leading '#'s.
func readInteger(s string, params ParamSource) (uint32, int) {
	if len(s) > 0 && s[0] == '#' {
		inner, n := readInteger(s[1:], params)
		return uint32(int64(params.Fetch(uint16(inner)))), n + 1
	}
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, i
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, i
	}
	return uint32(n), i
}

// readReal parses the real number at the front of s, following #nnn
// indirection exactly like readInteger.
func readReal(s string, params ParamSource) (float64, int) {
	if len(s) > 0 && s[0] == '#' {
		inner, n := readInteger(s[1:], params)
		return params.Fetch(uint16(inner)), n + 1
	}
	end := skipDigits(s)
	if end == 0 {
		return math.NaN(), 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return math.NaN(), end
	}
	return v, end
}

// skipDigits returns the length of the numeric token at the front of s: an
// optional sign, a digit run, an optional '.', and another digit run. The
// extracted run is what gets handed to strconv.ParseFloat, so that
// Go's own (implementation-defined-free, but still broader) float syntax
// never sees anything beyond a plain decimal literal.
func skipDigits(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// ValidateBlock enforces the 255-byte block limit (spec §6: lines are at
// most 255 bytes).
func ValidateBlock(block string) error {
	if len(block) > 255 {
		return gcodeerr.ErrBlockTooLong
	}
	return nil
}
