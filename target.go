// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package boxer

import (
	"shanhu.io/text/lexing"
)

type depEdge struct {
	name string
	pos  *lexing.Pos
}

type target struct {
	name  string
	index int // registration order
	pos   *lexing.Pos

	builder Builder
	runner  Runner

	deps   []*depEdge
	depSet map[string]bool
}

func newTarget(name string, index int, pos *lexing.Pos) *target {
	return &target{
		name:   name,
		index:  index,
		pos:    pos,
		depSet: make(map[string]bool),
	}
}

// addDep appends a dependency. Adding the same name twice is a no-op.
func (t *target) addDep(name string, pos *lexing.Pos) {
	if t.depSet[name] {
		return
	}
	t.depSet[name] = true
	t.deps = append(t.deps, &depEdge{name: name, pos: pos})
}

func (t *target) depNames() []string {
	var names []string
	for _, d := range t.deps {
		names = append(names, d.name)
	}
	return names
}

// TargetInfo is a read-only description of a registered target.
type TargetInfo struct {
	Name       string
	Deps       []string `json:",omitempty"`
	Default    bool     `json:",omitempty"`
	HasBuilder bool     `json:",omitempty"`
	HasRun     bool     `json:",omitempty"`
}
