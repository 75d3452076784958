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

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// Adapter is a packaging or signing backend that builder and run closures
// can invoke. The engine never looks into what an adapter does.
type Adapter interface {
	// Name is the name of the global function in the config script.
	Name() string

	// Produce runs the backend and returns the artifact.
	Produce(c Context, args *Args) (starlark.Value, error)
}

// DefaultAdapters returns the builtin backend adapters.
func DefaultAdapters() []Adapter {
	return []Adapter{
		new(execTool),
		new(tarBundle),
		new(installFiles),
		new(download),
		newDockerRun(nil),
	}
}

// adapterBuiltin exposes an adapter to scripts as name(ctx, **kwargs).
func adapterBuiltin(a Adapter) *starlark.Builtin {
	name := a.Name()
	fn := func(
		_ *starlark.Thread, b *starlark.Builtin,
		args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf(
				"%s: got %d positional arguments, want 1 (ctx)",
				name, len(args),
			)
		}
		ctx, ok := args[0].(*contextValue)
		if !ok {
			return nil, typeErrorf(name, "ctx", args[0], "BuildContext")
		}

		ret, err := a.Produce(ctx.c, newArgs(name, kwargs))
		if err != nil {
			return nil, errcode.Annotate(err, name)
		}
		if ret == nil {
			return starlark.None, nil
		}
		return ret, nil
	}
	return starlark.NewBuiltin(name, fn)
}
