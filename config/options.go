/*
   Config: the fpdebug options file parser.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

/*
   Configuration file format mirrors the CLI flags of spec.md section 6:

   '#' indicates a comment, rest of line ignored.
   <line> := <name> '=' <value> | <name>
   <name>  := one of the flags in the CLI table, without the leading --
   <value> := 'yes' | 'no' | <integer>

   A bare <name> with no '=' is shorthand for "<name>=yes", matching the
   boolean-flag convention the CLI itself uses via getopt.
*/

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"fpdebug/shadow"
)

// optionLine tracks scan position within one line, in the spirit of
// configparser's skipSpace/isEOL/getName scanner (config/configparser
// in the teacher repo).
type optionLine struct {
	line string
	pos  int
	num  int
}

func (l *optionLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *optionLine) isEOL() bool {
	return l.pos >= len(l.line) || l.line[l.pos] == '#'
}

func (l *optionLine) getName() string {
	start := l.pos
	for l.pos < len(l.line) {
		by := l.line[l.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '-' {
			l.pos++
			continue
		}
		break
	}
	return l.line[start:l.pos]
}

func (l *optionLine) getValue() string {
	l.skipSpace()
	start := l.pos
	for !l.isEOL() && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return l.line[start:l.pos]
}

// parse applies one line's setting to opts, returning an error for a
// malformed or unrecognized name (matching configparser's per-line
// diagnostic style: "line: N" in the message).
func (l *optionLine) parse(opts *shadow.Options) error {
	l.skipSpace()
	if l.isEOL() {
		return nil
	}

	name := l.getName()
	if name == "" {
		return fmt.Errorf("invalid option encountered, line: %d", l.num)
	}
	l.skipSpace()

	value := "yes"
	if !l.isEOL() && l.line[l.pos] == '=' {
		l.pos++
		value = l.getValue()
	}

	if err := applyOption(opts, name, value); err != nil {
		return fmt.Errorf("%w, line: %d", err, l.num)
	}
	return nil
}

func parseBool(name, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("option %s: invalid boolean value %q", name, value)
	}
}

// applyOption maps one name=value pair onto the matching field of
// shadow.Options, mirroring the CLI flag table of spec.md section 6.
func applyOption(opts *shadow.Options, name, value string) error {
	switch strings.ToLower(name) {
	case "precision":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("option precision: invalid value %q", value)
		}
		opts.Precision = uint(n)
	case "mean-error":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.MeanError = b
	case "ignore-libraries":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.IgnoreLibraries = b
	case "ignore-accurate":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.IgnoreAccurate = b
	case "sim-original":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.SimOriginal = b
	case "analyze-all":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.AnalyzeAll = b
	case "ignore-end":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.IgnoreEnd = b
	case "error-localization":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.ErrorLocalize = b
	case "print-every-error":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.PrintEveryError = b
	case "detect-pso":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.DetectPSO = b
	case "goto-shadow-branch":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.GotoShadowBranch = b
	case "track-int":
		b, err := parseBool(name, value)
		if err != nil {
			return err
		}
		opts.TrackInt = b
	default:
		return fmt.Errorf("unknown option: %s", name)
	}
	return nil
}

// Load reads name, applying each line's setting onto a copy of
// shadow.DefaultOptions, and returns the resulting Options.
func Load(name string) (shadow.Options, error) {
	opts := shadow.DefaultOptions()

	file, err := os.Open(name)
	if err != nil {
		return opts, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	num := 0
	for {
		raw, err := reader.ReadString('\n')
		num++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return opts, err
		}
		line := &optionLine{line: raw, num: num}
		if perr := line.parse(&opts); perr != nil {
			return opts, perr
		}
		if err != nil && errors.Is(err, io.EOF) {
			break
		}
	}
	return opts, nil
}
