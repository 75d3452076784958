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

	"go.starlark.net/starlark"
)

// Builder builds a target. deps maps each dependency name to the artifact
// that the dependency produced. Artifacts are frozen and must not be
// modified.
type Builder interface {
	Build(c Context, deps map[string]starlark.Value) (starlark.Value, error)
}

// Runner runs a target after it is built.
type Runner interface {
	Run(c Context, artifact starlark.Value) error
}

// BuilderFunc is a function that implements Builder.
type BuilderFunc func(
	c Context, deps map[string]starlark.Value,
) (starlark.Value, error)

// Build calls f.
func (f BuilderFunc) Build(
	c Context, deps map[string]starlark.Value,
) (starlark.Value, error) {
	return f(c, deps)
}

// RunnerFunc is a function that implements Runner.
type RunnerFunc func(c Context, artifact starlark.Value) error

// Run calls f.
func (f RunnerFunc) Run(c Context, artifact starlark.Value) error {
	return f(c, artifact)
}

// scriptBuilder calls a builder closure from the config script as
// fn(ctx, deps).
type scriptBuilder struct {
	s  *Session
	fn starlark.Callable
}

func (b *scriptBuilder) Build(
	c Context, deps map[string]starlark.Value,
) (starlark.Value, error) {
	var names []string
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	dict := starlark.NewDict(len(deps))
	for _, name := range names {
		if err := dict.SetKey(starlark.String(name), deps[name]); err != nil {
			return nil, err
		}
	}
	dict.Freeze()

	thread := b.s.newThread("build " + c.Target())
	args := starlark.Tuple{newContextValue(c), dict}
	return starlark.Call(thread, b.fn, args, nil)
}

// scriptRunner calls a run closure from the config script as
// fn(ctx, artifact).
type scriptRunner struct {
	s  *Session
	fn starlark.Callable
}

func (r *scriptRunner) Run(c Context, artifact starlark.Value) error {
	thread := r.s.newThread("run " + c.Target())
	args := starlark.Tuple{newContextValue(c), artifact}
	_, err := starlark.Call(thread, r.fn, args, nil)
	return err
}
