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
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/text/lexing"
)

// ConfigError is an error in the build configuration: a duplicate or unknown
// target name, a registration after the graph is frozen, a misuse of the
// build path, or a malformed configuration script.
type ConfigError struct {
	Pos  *lexing.Pos // Where the error was raised, if known.
	Name string      // Offending target name, if any.
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("target %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(name, f string, args ...interface{}) *ConfigError {
	return &ConfigError{Name: name, Err: errcode.InvalidArgf(f, args...)}
}

// GraphError is a dependency cycle found when resolving build order.
type GraphError struct {
	// Cycle is the cycle path. The first and the last element are the same
	// target.
	Cycle []string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf(
		"circular dependency: %s", strings.Join(e.Cycle, " -> "),
	)
}

// BuildError is a failure when building or running a target.
type BuildError struct {
	Target string
	Run    bool // The run closure failed, not the builder.
	Err    error
}

func (e *BuildError) Error() string {
	switch {
	case e.Target == "":
		return fmt.Sprintf("build: %s", e.Err)
	case e.Run:
		return fmt.Sprintf("run %q: %s", e.Target, e.Err)
	}
	return fmt.Sprintf("build %q: %s", e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error { return e.Err }

func posString(p *lexing.Pos) string {
	if p == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}
