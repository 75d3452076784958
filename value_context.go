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

// contextValue is the script handle of the build context, passed to builder
// and run closures as their first argument.
type contextValue struct {
	c Context
}

func newContextValue(c Context) *contextValue { return &contextValue{c: c} }

var (
	_ starlark.Value    = (*contextValue)(nil)
	_ starlark.HasAttrs = (*contextValue)(nil)
)

func (v *contextValue) String() string {
	return fmt.Sprintf("BuildContext(%q)", v.c.Target())
}

func (v *contextValue) Type() string         { return "BuildContext" }
func (v *contextValue) Freeze()              {}
func (v *contextValue) Truth() starlark.Bool { return starlark.True }

func (v *contextValue) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: BuildContext")
}

var contextMethods = map[string]*starlark.Builtin{
	"build_path":      starlark.NewBuiltin("build_path", ctxBuildPath),
	"out":             starlark.NewBuiltin("out", ctxOut),
	"src":             starlark.NewBuiltin("src", ctxSrc),
	"get_var":         starlark.NewBuiltin("get_var", ctxGetVar),
	"set_var":         starlark.NewBuiltin("set_var", ctxSetVar),
	"subst":           starlark.NewBuiltin("subst", ctxSubst),
	"version":         starlark.NewBuiltin("version", ctxVersion),
	"platform_triple": starlark.NewBuiltin("platform_triple", ctxTriple),
	"resolved_target": starlark.NewBuiltin("resolved_target", ctxResolved),
}

func (v *contextValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "target":
		return starlark.String(v.c.Target()), nil
	case "build_number":
		return starlark.MakeInt(v.c.BuildNumber()), nil
	}
	if m, ok := contextMethods[name]; ok {
		return m.BindReceiver(v), nil
	}
	return nil, nil
}

func (v *contextValue) AttrNames() []string {
	names := []string{"target", "build_number"}
	for name := range contextMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ctxBuildPath(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 0,
	); err != nil {
		return nil, err
	}
	p, err := c.BuildPath()
	if err != nil {
		return nil, err
	}
	return starlark.String(p), nil
}

func ctxOut(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var p string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &p,
	); err != nil {
		return nil, err
	}
	out, err := c.Out(p)
	if err != nil {
		return nil, err
	}
	return starlark.String(out), nil
}

func ctxSrc(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var p string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &p,
	); err != nil {
		return nil, err
	}
	return starlark.String(c.Src(p)), nil
}

func ctxGetVar(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var key string
	var def starlark.Value = starlark.None
	if err := starlark.UnpackArgs(
		b.Name(), args, kwargs, "key", &key, "default?", &def,
	); err != nil {
		return nil, err
	}
	if v, ok := c.Var(key); ok {
		return starlark.String(v), nil
	}
	return def, nil
}

func ctxSetVar(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var key, value string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 2, &key, &value,
	); err != nil {
		return nil, err
	}
	c.SetVar(key, value)
	return starlark.None, nil
}

func ctxSubst(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var s string
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 1, &s,
	); err != nil {
		return nil, err
	}
	ret, err := c.Subst(s)
	if err != nil {
		return nil, err
	}
	return starlark.String(ret), nil
}

func ctxVersion(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 0,
	); err != nil {
		return nil, err
	}
	v, err := c.Version()
	if err != nil {
		return nil, err
	}
	return starlark.String(v), nil
}

func ctxTriple(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	if err := starlark.UnpackPositionalArgs(
		b.Name(), args, kwargs, 0,
	); err != nil {
		return nil, err
	}
	return starlark.String(c.PlatformTriple()), nil
}

func ctxResolved(
	_ *starlark.Thread, b *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple,
) (starlark.Value, error) {
	c := b.Receiver().(*contextValue).c
	var out, run string
	if err := starlark.UnpackArgs(
		b.Name(), args, kwargs, "output_path", &out, "run_path?", &run,
	); err != nil {
		return nil, err
	}

	// Relative paths are under the build root.
	root, err := c.BuildPath()
	if err != nil {
		return nil, err
	}
	outPath, err := underRoot(root, out)
	if err != nil {
		return nil, err
	}
	r := &ResolvedTarget{OutputPath: outPath}
	if run != "" {
		runPath, err := underRoot(root, run)
		if err != nil {
			return nil, err
		}
		r.RunPath = runPath
	}
	return r, nil
}
