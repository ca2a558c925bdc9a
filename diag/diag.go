// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package diag collects and renders user-facing compile diagnostics:
// lexical, syntactic, resolution and typing errors. Internal bugs take a
// different path (see Fatal) and never end up in a Bag.
package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Pos is a 1-based line/column pair.
type Pos struct {
	Line, Column int
}

// Range spans [Start, End) within one file.
type Range struct {
	Start, End Pos
}

// Severity classifies which pass raised a Diagnostic.
type Severity int

const (
	Lexical Severity = iota
	Syntactic
	Resolution
	Typing
)

func (s Severity) String() string {
	switch s {
	case Lexical:
		return "lexical error"
	case Syntactic:
		return "syntax error"
	case Resolution:
		return "resolution error"
	case Typing:
		return "type error"
	default:
		return "error"
	}
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity
	Range    Range
	Message  string
}

// Bag accumulates the diagnostics of one pass so the driver can print
// them all together instead of stopping at the first one. Each pass
// (Parse, Resolve, TypeCheck) opens its own Bag.
type Bag struct {
	path  string
	diags []Diagnostic
}

// NewBag returns an empty Bag for the file at path (used only for
// rendering the "<path>:<line>:<col>" prefix).
func NewBag(path string) *Bag {
	return &Bag{path: path}
}

// Add records a diagnostic.
func (b *Bag) Add(sev Severity, r Range, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{Severity: sev, Range: r, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	return len(b.diags) > 0
}

// All returns every diagnostic recorded so far, in report order.
func (b *Bag) All() []Diagnostic {
	return b.diags
}

// Render writes every diagnostic in "<path>:<line>:<col>: Error: <message>"
// form, followed by the offending source line and a caret/tilde underline,
// the way the original mcc driver does.
func (b *Bag) Render(source string) string {
	lines := strings.Split(source, "\n")
	var out strings.Builder
	for _, d := range b.diags {
		fmt.Fprintf(&out, "%s:%d:%d: Error: %s\n", b.path, d.Range.Start.Line, d.Range.Start.Column, d.Message)
		if d.Range.Start.Line-1 < len(lines) {
			line := lines[d.Range.Start.Line-1]
			fmt.Fprintf(&out, "  %s\n", line)
			width := d.Range.End.Column - d.Range.Start.Column
			if width < 1 {
				width = 1
			}
			fmt.Fprintf(&out, "  %s^%s\n", strings.Repeat(" ", d.Range.Start.Column-1), strings.Repeat("~", width-1))
		}
	}
	return out.String()
}

// Fatal reports an internal compiler bug — an invariant the passes above
// diag are supposed to guarantee never breaks. It is never user-facing;
// main recovers it once at the top level and exits nonzero.
func Fatal(format string, args ...interface{}) {
	err := errors.Wrap(fmt.Errorf(format, args...), "fatal error")
	panic(err)
}
