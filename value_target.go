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
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// targetValue is the script handle of a registered target. All handles of
// the same target share the same target state.
type targetValue struct {
	s *Session
	t *target
}

var (
	_ starlark.Value    = (*targetValue)(nil)
	_ starlark.HasAttrs = (*targetValue)(nil)
)

func (v *targetValue) String() string {
	return fmt.Sprintf("Target(%q)", v.t.name)
}

func (v *targetValue) Type() string { return "Target" }

// Freeze does nothing. Target state is guarded by the graph's frozen flag.
func (v *targetValue) Freeze() {}

func (v *targetValue) Truth() starlark.Bool { return starlark.True }

func (v *targetValue) Hash() (uint32, error) {
	return starlark.String(v.t.name).Hash()
}

var targetMethods = map[string]*starlark.Builtin{
	"add_dependency": starlark.NewBuiltin("add_dependency", targetAddDependency),
	"set_builder":    starlark.NewBuiltin("set_builder", targetSetBuilder),
	"set_run":        starlark.NewBuiltin("set_run", targetSetRun),
}

func (v *targetValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(v.t.name), nil
	case "depends":
		var deps []starlark.Value
		for _, d := range v.t.deps {
			deps = append(deps, starlark.String(d.name))
		}
		return starlark.NewList(deps), nil
	case "is_default":
		return starlark.Bool(v.s.graph.defaultTarget() == v.t.name), nil
	}
	if m, ok := targetMethods[name]; ok {
		return m.BindReceiver(v), nil
	}
	return nil, nil
}

func (v *targetValue) AttrNames() []string {
	names := []string{"name", "depends", "is_default"}
	for name := range targetMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func targetAddDependency(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	v := b.Receiver().(*targetValue)
	var name string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &name,
	); err != nil {
		return nil, err
	}

	pos := callerPos(thread)
	if err := v.s.graph.checkOpen(b.Name()); err != nil {
		return nil, v.s.raise(&ConfigError{Pos: pos, Name: v.t.name, Err: err})
	}
	v.t.addDep(name, pos)
	return starlark.None, nil
}

func targetSetBuilder(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	v := b.Receiver().(*targetValue)
	var fn starlark.Value
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &fn,
	); err != nil {
		return nil, err
	}
	c, err := optionalCallable(b.Name(), "builder", fn, 2)
	if err != nil {
		return nil, err
	}

	pos := callerPos(thread)
	if err := v.s.graph.checkOpen(b.Name()); err != nil {
		return nil, v.s.raise(&ConfigError{Pos: pos, Name: v.t.name, Err: err})
	}
	v.t.builder = v.s.scriptBuilder(c)
	return starlark.None, nil
}

func targetSetRun(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	v := b.Receiver().(*targetValue)
	var fn starlark.Value
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &fn,
	); err != nil {
		return nil, err
	}
	c, err := optionalCallable(b.Name(), "run", fn, 2)
	if err != nil {
		return nil, err
	}

	pos := callerPos(thread)
	if err := v.s.graph.checkOpen(b.Name()); err != nil {
		return nil, v.s.raise(&ConfigError{Pos: pos, Name: v.t.name, Err: err})
	}
	v.t.runner = v.s.scriptRunner(c)
	return starlark.None, nil
}
