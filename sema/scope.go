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

// Package sema resolves identifiers to unique, shadow-renamed names and
// type-checks the resulting tree, the two passes between parsing and IR
// generation.
package sema

import (
	"fmt"

	"mcc/arena"
)

// binding is one identifier record: the unique rewritten name this
// resolver assigned a source name, and the shadow index it was derived
// from (0 for a name that isn't shadowing anything outer).
type binding struct {
	rewritten   string
	shadowIndex int
}

// scope is one lexical block's symbol table: source name -> binding.
// declaredHere tracks which names were introduced directly in this block,
// so "redeclared in the same scope" can be distinguished from ordinary
// shadowing of an outer declaration.
type scope struct {
	parent       *scope
	names        *arena.StringMap[binding]
	declaredHere map[string]bool
}

func newScope(a *arena.Arena, parent *scope) *scope {
	return &scope{parent: parent, names: arena.NewStringMap[binding](a), declaredHere: map[string]bool{}}
}

// lookup walks outward through enclosing scopes, the shadowing rule every
// block-scoped language uses.
func (s *scope) lookup(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names.Get(name); ok {
			return b.rewritten, true
		}
	}
	return "", false
}

// lookupOuter is like lookup but starts at s.parent, used when declaring a
// new binding in s to find the shadow index of whatever it shadows.
func (s *scope) lookupOuter(name string) (binding, bool) {
	for cur := s.parent; cur != nil; cur = cur.parent {
		if b, ok := cur.names.Get(name); ok {
			return b, true
		}
	}
	return binding{}, false
}

// declaredInThisScope reports whether name was already bound directly in
// s (not an outer scope), the condition that makes a second declaration
// an error rather than legal shadowing.
func (s *scope) declaredInThisScope(name string) bool {
	return s.declaredHere[name]
}

// declare assigns name its rewritten form per the shadow-index rule: if an
// enclosing scope already binds name, the new binding's shadow index is
// one past that binding's, and the rewritten name is "<name>.<index>";
// otherwise the shadow index is 0 and the rewritten name is left as name
// itself, so an unshadowed variable keeps its source spelling.
func (s *scope) declare(name string) string {
	idx := 0
	if outer, ok := s.lookupOuter(name); ok {
		idx = outer.shadowIndex + 1
	}
	rewritten := name
	if idx > 0 {
		rewritten = fmt.Sprintf("%s.%d", name, idx)
	}
	s.names.Set(name, binding{rewritten: rewritten, shadowIndex: idx})
	s.declaredHere[name] = true
	return rewritten
}

// resolver carries the counters and scope stack threaded through one
// resolve pass.
type resolver struct {
	a       *arena.Arena
	cur     *scope
	loopCtr int
	loopStk []string
}

func (r *resolver) pushScope() {
	r.cur = newScope(r.a, r.cur)
}

func (r *resolver) popScope() {
	r.cur = r.cur.parent
}

func (r *resolver) pushLoop() string {
	r.loopCtr++
	label := fmt.Sprintf("loop.%d", r.loopCtr)
	r.loopStk = append(r.loopStk, label)
	return label
}

func (r *resolver) popLoop() {
	r.loopStk = r.loopStk[:len(r.loopStk)-1]
}

func (r *resolver) currentLoop() (string, bool) {
	if len(r.loopStk) == 0 {
		return "", false
	}
	return r.loopStk[len(r.loopStk)-1], true
}
