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
	"sort"

	"shanhu.io/misc/errcode"
)

// roots maps the requested names into targets, sorted by registration
// order. When names is empty, it returns the default target.
func (g *targetGraph) roots(names []string) ([]*target, error) {
	if len(names) == 0 {
		def := g.defaultTarget()
		if def == "" {
			return nil, &ConfigError{
				Err: errcode.NotFoundf("no target registered"),
			}
		}
		names = []string{def}
	}

	seen := make(map[string]bool)
	var ts []*target
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		t := g.get(name)
		if t == nil {
			return nil, &ConfigError{
				Name: name,
				Err:  errcode.NotFoundf("target not found"),
			}
		}
		ts = append(ts, t)
	}

	sort.Slice(ts, func(i, j int) bool { return ts[i].index < ts[j].index })
	return ts, nil
}

type orderer struct {
	g      *targetGraph
	tracer *loadTracer
	done   map[string]bool
	order  []*target
}

func (o *orderer) visit(t *target) error {
	if o.done[t.name] {
		return nil
	}
	if !o.tracer.push(t.name) {
		return &GraphError{Cycle: o.tracer.cycle(t.name)}
	}
	defer o.tracer.pop()

	for _, d := range t.deps {
		dep := o.g.get(d.name)
		if dep == nil {
			return &ConfigError{
				Pos:  d.pos,
				Name: t.name,
				Err:  errcode.NotFoundf("dependency %q not found", d.name),
			}
		}
		if err := o.visit(dep); err != nil {
			return err
		}
	}

	o.done[t.name] = true
	o.order = append(o.order, t)
	return nil
}

// buildOrder returns the targets to build for the given roots, where every
// target comes after all of its dependencies, and each target appears only
// once. Dependencies are visited in declaration order.
func (g *targetGraph) buildOrder(roots []*target) ([]*target, error) {
	o := &orderer{
		g:      g,
		tracer: newLoadTracer(),
		done:   make(map[string]bool),
	}
	for _, t := range roots {
		if err := o.visit(t); err != nil {
			return nil, err
		}
	}
	return o.order, nil
}
