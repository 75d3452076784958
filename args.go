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

func typeErrorf(fn, param string, got starlark.Value, want string) error {
	return fmt.Errorf(
		"%s: for parameter %s: got %s, want %s", fn, param, got.Type(), want,
	)
}

// optionalCallable checks that v is None or a callable. When v is a
// script function, it must take at least nparams parameters.
func optionalCallable(fn, param string, v starlark.Value, nparams int) (
	starlark.Callable, error,
) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	c, ok := v.(starlark.Callable)
	if !ok {
		return nil, typeErrorf(fn, param, v, "callable or None")
	}
	if f, ok := c.(*starlark.Function); ok {
		if f.NumParams() < nparams && !f.HasVarargs() {
			return nil, fmt.Errorf(
				"%s: for parameter %s: function %s takes %d parameters, "+
					"must take %d",
				fn, param, f.Name(), f.NumParams(), nparams,
			)
		}
	}
	return c, nil
}

// stringList converts a list or tuple of strings. None converts to nil.
func stringList(fn, param string, v starlark.Value) ([]string, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	seq, ok := v.(starlark.Sequence)
	if !ok {
		return nil, typeErrorf(fn, param, v, "list of strings")
	}

	var ret []string
	it := seq.Iterate()
	defer it.Done()
	var x starlark.Value
	for i := 0; it.Next(&x); i++ {
		s, ok := x.(starlark.String)
		if !ok {
			return nil, typeErrorf(
				fn, fmt.Sprintf("%s[%d]", param, i), x, "string",
			)
		}
		ret = append(ret, string(s))
	}
	return ret, nil
}

// stringMap converts a dict of strings to strings. None converts to nil.
func stringMap(fn, param string, v starlark.Value) (
	map[string]string, error,
) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	d, ok := v.(*starlark.Dict)
	if !ok {
		return nil, typeErrorf(fn, param, v, "dict of strings")
	}

	ret := make(map[string]string)
	for _, item := range d.Items() {
		k, ok := item[0].(starlark.String)
		if !ok {
			return nil, typeErrorf(fn, param+" key", item[0], "string")
		}
		v, ok := item[1].(starlark.String)
		if !ok {
			return nil, typeErrorf(
				fn, fmt.Sprintf("%s[%q]", param, string(k)), item[1], "string",
			)
		}
		ret[string(k)] = string(v)
	}
	return ret, nil
}

// Args holds the keyword arguments of an adapter call.
type Args struct {
	fn   string
	m    map[string]starlark.Value
	used map[string]bool
}

func newArgs(fn string, kwargs []starlark.Tuple) *Args {
	m := make(map[string]starlark.Value)
	for _, kv := range kwargs {
		m[string(kv[0].(starlark.String))] = kv[1]
	}
	return &Args{fn: fn, m: m, used: make(map[string]bool)}
}

// NewArgs creates the arguments for calling an adapter from Go code.
func NewArgs(fn string, m map[string]starlark.Value) *Args {
	cp := make(map[string]starlark.Value)
	for k, v := range m {
		cp[k] = v
	}
	return &Args{fn: fn, m: cp, used: make(map[string]bool)}
}

func (a *Args) get(key string) (starlark.Value, bool) {
	a.used[key] = true
	v, ok := a.m[key]
	if ok && v == starlark.None {
		return nil, false
	}
	return v, ok
}

// String returns a required string argument.
func (a *Args) String(key string) (string, error) {
	v, ok := a.get(key)
	if !ok {
		return "", fmt.Errorf("%s: missing argument %s", a.fn, key)
	}
	s, ok := v.(starlark.String)
	if !ok {
		return "", typeErrorf(a.fn, key, v, "string")
	}
	return string(s), nil
}

// OptString returns an optional string argument, or def if missing.
func (a *Args) OptString(key, def string) (string, error) {
	if _, ok := a.get(key); !ok {
		return def, nil
	}
	return a.String(key)
}

// OptBool returns an optional bool argument, or def if missing.
func (a *Args) OptBool(key string, def bool) (bool, error) {
	v, ok := a.get(key)
	if !ok {
		return def, nil
	}
	b, ok := v.(starlark.Bool)
	if !ok {
		return false, typeErrorf(a.fn, key, v, "bool")
	}
	return bool(b), nil
}

// Strings returns an optional list of strings argument.
func (a *Args) Strings(key string) ([]string, error) {
	v, _ := a.get(key)
	return stringList(a.fn, key, v)
}

// StringMap returns an optional dict of strings argument.
func (a *Args) StringMap(key string) (map[string]string, error) {
	v, _ := a.get(key)
	return stringMap(a.fn, key, v)
}

// Done checks that all arguments are consumed.
func (a *Args) Done() error {
	var unknown []string
	for k := range a.m {
		if !a.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%s: unexpected arguments: %q", a.fn, unknown)
}
