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
	"shanhu.io/misc/errcode"
	"shanhu.io/text/lexing"
)

// targetGraph holds all declared targets. It is append-only until frozen,
// and read-only after.
type targetGraph struct {
	targets map[string]*target
	order   []*target

	defaultName string
	defaultPos  *lexing.Pos

	frozen bool
}

func newTargetGraph() *targetGraph {
	return &targetGraph{
		targets: make(map[string]*target),
	}
}

func (g *targetGraph) checkOpen(op string) error {
	if g.frozen {
		return errcode.InvalidArgf(
			"%s: target graph is frozen; "+
				"targets can only be changed while evaluating the config",
			op,
		)
	}
	return nil
}

func (g *targetGraph) register(name string, pos *lexing.Pos) (
	*target, error,
) {
	if err := g.checkOpen("register_target"); err != nil {
		return nil, &ConfigError{Pos: pos, Name: name, Err: err}
	}
	if name == "" {
		return nil, &ConfigError{
			Pos: pos, Err: errcode.InvalidArgf("target name is empty"),
		}
	}
	if p, ok := g.targets[name]; ok {
		return nil, &ConfigError{
			Pos:  pos,
			Name: name,
			Err: errcode.InvalidArgf(
				"redeclared, previously defined at %s", posString(p.pos),
			),
		}
	}

	t := newTarget(name, len(g.order), pos)
	g.targets[name] = t
	g.order = append(g.order, t)
	return t, nil
}

func (g *targetGraph) get(name string) *target { return g.targets[name] }

func (g *targetGraph) setDefault(name string, pos *lexing.Pos) error {
	if err := g.checkOpen("set_default_target"); err != nil {
		return &ConfigError{Pos: pos, Name: name, Err: err}
	}
	if _, ok := g.targets[name]; !ok {
		return &ConfigError{
			Pos:  pos,
			Name: name,
			Err:  errcode.NotFoundf("default target not found"),
		}
	}
	g.defaultName = name
	g.defaultPos = pos
	return nil
}

// defaultTarget returns the explicitly marked default target, or the first
// registered target when none is marked. Returns empty string when there
// are no targets.
func (g *targetGraph) defaultTarget() string {
	if g.defaultName != "" {
		return g.defaultName
	}
	if len(g.order) == 0 {
		return ""
	}
	return g.order[0].name
}

// check checks that all the dependency edges and the default target refer
// to declared targets.
func (g *targetGraph) check() []*lexing.Error {
	errList := lexing.NewErrorList()
	for _, t := range g.order {
		for _, d := range t.deps {
			if _, ok := g.targets[d.name]; ok {
				continue
			}
			errList.Add(&lexing.Error{
				Pos: d.pos,
				Err: &ConfigError{
					Pos:  d.pos,
					Name: t.name,
					Err:  errcode.NotFoundf("dependency %q not found", d.name),
				},
			})
		}
	}
	if name := g.defaultName; name != "" && g.targets[name] == nil {
		errList.Add(&lexing.Error{
			Pos: g.defaultPos,
			Err: &ConfigError{
				Pos:  g.defaultPos,
				Name: name,
				Err:  errcode.NotFoundf("default target not found"),
			},
		})
	}
	return errList.Errs()
}

func (g *targetGraph) freeze() { g.frozen = true }

func (g *targetGraph) infos() []*TargetInfo {
	def := g.defaultTarget()
	var infos []*TargetInfo
	for _, t := range g.order {
		infos = append(infos, &TargetInfo{
			Name:       t.name,
			Deps:       t.depNames(),
			Default:    t.name == def,
			HasBuilder: t.builder != nil,
			HasRun:     t.runner != nil,
		})
	}
	return infos
}
