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
	"go.starlark.net/starlark"
)

type builtinFunc = func(
	*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple,
) (starlark.Value, error)

// predeclared returns the globals visible to the configuration script.
func (s *Session) predeclared() starlark.StringDict {
	fns := map[string]builtinFunc{
		"register_target":     s.registerTarget,
		"set_default_target":  s.setDefaultTarget,
		"get_build_path":      s.getBuildPath,
		"set_build_path":      s.setBuildPath,
		"get_var":             s.getVar,
		"set_var":             s.setVar,
		"get_platform_triple": s.getPlatformTriple,
	}

	d := make(starlark.StringDict)
	for name, fn := range fns {
		d[name] = starlark.NewBuiltin(name, fn)
	}
	for _, a := range s.adapters {
		d[a.Name()] = adapterBuiltin(a)
	}
	return d
}

// register_target(name, builder=None, depends_on=[], default=False)
func (s *Session) registerTarget(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var name string
	var builder, dependsOn starlark.Value
	var isDefault bool
	if err := starlark.UnpackArgs(
		b.Name(), args, kwargs,
		"name", &name,
		"builder?", &builder,
		"depends_on?", &dependsOn,
		"default?", &isDefault,
	); err != nil {
		return nil, err
	}

	fn, err := optionalCallable(b.Name(), "builder", builder, 2)
	if err != nil {
		return nil, err
	}
	deps, err := stringList(b.Name(), "depends_on", dependsOn)
	if err != nil {
		return nil, err
	}

	pos := callerPos(thread)
	t, err := s.graph.register(name, pos)
	if err != nil {
		return nil, s.raise(err.(*ConfigError))
	}
	t.builder = s.scriptBuilder(fn)
	for _, d := range deps {
		t.addDep(d, pos)
	}
	if isDefault {
		if err := s.graph.setDefault(name, pos); err != nil {
			return nil, s.raise(err.(*ConfigError))
		}
	}
	return &targetValue{s: s, t: t}, nil
}

// set_default_target(name)
func (s *Session) setDefaultTarget(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &name,
	); err != nil {
		return nil, err
	}
	if err := s.graph.setDefault(name, callerPos(thread)); err != nil {
		return nil, s.raise(err.(*ConfigError))
	}
	return starlark.None, nil
}

// get_build_path()
func (s *Session) getBuildPath(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 0,
	); err != nil {
		return nil, err
	}
	p, err := s.ctx.getBuildPath()
	if err != nil {
		return nil, &BuildError{Err: err}
	}
	return starlark.String(p), nil
}

// set_build_path(path)
func (s *Session) setBuildPath(
	thread *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var p string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &p,
	); err != nil {
		return nil, err
	}
	if err := s.ctx.setBuildPath(p); err != nil {
		return nil, s.raise(&ConfigError{Pos: callerPos(thread), Err: err})
	}
	return starlark.None, nil
}

// get_var(key, default=None)
func (s *Session) getVar(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var key string
	var def starlark.Value = starlark.None
	if err := starlark.UnpackArgs(
		b.Name(), args, kwargs, "key", &key, "default?", &def,
	); err != nil {
		return nil, err
	}
	if v, ok := s.ctx.getVar(key); ok {
		return starlark.String(v), nil
	}
	return def, nil
}

// set_var(key, value)
func (s *Session) setVar(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var key, value string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 2, &key, &value,
	); err != nil {
		return nil, err
	}
	s.ctx.setVar(key, value)
	return starlark.None, nil
}

// get_platform_triple()
func (s *Session) getPlatformTriple(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 0,
	); err != nil {
		return nil, err
	}
	return starlark.String(s.ctx.triple), nil
}
