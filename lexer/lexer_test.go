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
package lexer

import (
	"testing"

	"mcc/arena"
)

func kinds(t *testing.T, source string) []Kind {
	t.Helper()
	a := arena.New(0)
	toks := Scan(a, source)
	var out []Kind
	for i := 0; i < toks.Len(); i++ {
		out = append(out, toks.At(i).Kind)
	}
	return out
}

func TestLexerTotality(t *testing.T) {
	// Every input, however malformed, produces a finite token stream
	// ending in EOF: the lexer never gets stuck or panics.
	sources := []string{
		"",
		"int main(void) { return 0; }",
		"1foo",
		"@#$",
		"// comment\nint x;",
		"/* block \n comment */ x",
	}
	for _, src := range sources {
		ks := kinds(t, src)
		if len(ks) == 0 || ks[len(ks)-1] != EOF {
			t.Errorf("Scan(%q) did not end in EOF: %v", src, ks)
		}
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	ks := kinds(t, "int return_value returning")
	want := []Kind{KW_INT, IDENT, IDENT, EOF}
	if len(ks) != len(want) {
		t.Fatalf("got %v, want %v", ks, want)
	}
	for i := range want {
		if ks[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, ks[i], want[i])
		}
	}
}

func TestLexerArrowIsOneToken(t *testing.T) {
	ks := kinds(t, "a->b")
	want := []Kind{IDENT, ARROW, IDENT, EOF}
	if len(ks) != len(want) {
		t.Fatalf("got %v, want %v", ks, want)
	}
	for i := range want {
		if ks[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, ks[i], want[i])
		}
	}
}

func TestLexerBadLiteralBecomesErrorToken(t *testing.T) {
	ks := kinds(t, "1foo")
	if len(ks) != 2 || ks[0] != ERROR_TOKEN {
		t.Fatalf("got %v, want [ERROR_TOKEN EOF]", ks)
	}
}

func TestLineTableRoundTrip(t *testing.T) {
	source := "abc\ndef\r\nghi"
	lt := NewLineTable(source)
	cases := []struct {
		offset           int
		line, column int
	}{
		{0, 1, 1},
		{3, 1, 4},
		{4, 2, 1},
		{8, 2, 5}, // the \r before \n takes column 4 of its own, so \n is column 5
		{9, 3, 1},
	}
	for _, c := range cases {
		line, col := lt.Pos(c.offset)
		if line != c.line || col != c.column {
			t.Errorf("Pos(%d) = (%d,%d), want (%d,%d)", c.offset, line, col, c.line, c.column)
		}
	}
}
