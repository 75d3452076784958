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
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"shanhu.io/text/lexing"
)

// ConfigFile is the default name of the configuration script.
const ConfigFile = "BUILD.boxer"

// Options configures a session.
type Options struct {
	WorkDir   string            // Work directory; defaults to "."
	BuildPath string            // Default build root; defaults to "build"
	Triple    string            // Target platform; defaults to the host
	Vars      map[string]string // Initial substitution variables

	Log io.Writer // Build log; defaults to stderr.

	// Adapters are the backend adapters visible to the config script.
	// When nil, DefaultAdapters() is used.
	Adapters []Adapter
}

// Session is one evaluation of a configuration, with its target graph,
// build context and built artifacts.
type Session struct {
	id       string
	ctx      *buildContext
	graph    *targetGraph
	adapters []Adapter

	artifacts map[string]starlark.Value

	// The last configuration error raised by a script builtin.
	raised *ConfigError
}

// NewSession creates a new session where the target graph is still open
// for registration.
func NewSession(opts *Options) *Session {
	if opts == nil {
		opts = new(Options)
	}
	adapters := opts.Adapters
	if adapters == nil {
		adapters = DefaultAdapters()
	}
	return &Session{
		id:        uuid.New().String(),
		ctx:       newBuildContext(opts),
		graph:     newTargetGraph(),
		adapters:  adapters,
		artifacts: make(map[string]starlark.Value),
	}
}

// Evaluate evaluates a configuration script into a new session. The
// target graph of the returned session is frozen. src can be nil, a
// string or a []byte; when nil, the script is read from file.
func Evaluate(file string, src interface{}, opts *Options) (
	*Session, []*lexing.Error,
) {
	s := NewSession(opts)
	if errs := s.Exec(file, src); errs != nil {
		return nil, errs
	}
	return s, nil
}

// ID returns the unique id of the session.
func (s *Session) ID() string { return s.id }

// Exec runs the configuration script, and then freezes the target graph.
// A session can only execute one script.
func (s *Session) Exec(file string, src interface{}) []*lexing.Error {
	if err := s.graph.checkOpen("exec"); err != nil {
		return lexing.SingleErr(&ConfigError{Err: err})
	}

	thread := s.newThread("exec " + file)
	s.raised = nil
	if _, err := starlark.ExecFile(
		thread, file, src, s.predeclared(),
	); err != nil {
		return s.evalErrs(err)
	}
	return s.Freeze()
}

// Freeze checks and freezes the target graph. Targets cannot be
// registered or changed after the graph is frozen.
func (s *Session) Freeze() []*lexing.Error {
	if s.graph.frozen {
		return nil
	}
	if errs := s.graph.check(); errs != nil {
		return errs
	}
	s.graph.freeze()
	return nil
}

// RegisterTarget registers a target implemented in Go.
func (s *Session) RegisterTarget(
	name string, b Builder, deps ...string,
) error {
	t, err := s.graph.register(name, nil)
	if err != nil {
		return err
	}
	t.builder = b
	for _, d := range deps {
		t.addDep(d, nil)
	}
	return nil
}

// SetRunner sets the runner of a registered target.
func (s *Session) SetRunner(name string, r Runner) error {
	if err := s.graph.checkOpen("set_run"); err != nil {
		return &ConfigError{Name: name, Err: err}
	}
	t := s.graph.get(name)
	if t == nil {
		return configErrorf(name, "target not found")
	}
	t.runner = r
	return nil
}

// SetDefaultTarget marks a registered target as the default.
func (s *Session) SetDefaultTarget(name string) error {
	return s.graph.setDefault(name, nil)
}

// DefaultTarget returns the name of the default target.
func (s *Session) DefaultTarget() string { return s.graph.defaultTarget() }

// Targets lists all targets in registration order.
func (s *Session) Targets() []*TargetInfo { return s.graph.infos() }

// BuildPath returns the build root, creating it if not yet created.
func (s *Session) BuildPath() (string, error) { return s.ctx.getBuildPath() }

// PlatformTriple returns the target platform triple of the session.
func (s *Session) PlatformTriple() string { return s.ctx.triple }

func (s *Session) newThread(name string) *starlark.Thread {
	logger := s.ctx.logger
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			logger.Print(msg)
		},
	}
}

func (s *Session) scriptBuilder(fn starlark.Callable) Builder {
	if fn == nil {
		return nil
	}
	return &scriptBuilder{s: s, fn: fn}
}

func (s *Session) scriptRunner(fn starlark.Callable) Runner {
	if fn == nil {
		return nil
	}
	return &scriptRunner{s: s, fn: fn}
}

// raise records a configuration error raised from a script builtin, so
// that it keeps its type after passing through the interpreter.
func (s *Session) raise(err *ConfigError) error {
	s.raised = err
	return err
}

func lexPos(p syntax.Position) *lexing.Pos {
	if !p.IsValid() {
		return nil
	}
	return &lexing.Pos{
		File: p.Filename(),
		Line: int(p.Line),
		Col:  int(p.Col),
	}
}

// callerPos returns the script position that calls the current builtin.
func callerPos(thread *starlark.Thread) *lexing.Pos {
	if thread.CallStackDepth() < 2 {
		return nil
	}
	return lexPos(thread.CallFrame(1).Pos)
}

// builtinFile is the file name of call frames of Go builtins.
const builtinFile = "<builtin>"

// stackPos returns the innermost script position of a call stack.
func stackPos(stack starlark.CallStack) *lexing.Pos {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Pos.Filename() == builtinFile {
			continue
		}
		if p := lexPos(stack[i].Pos); p != nil {
			return p
		}
	}
	return nil
}

func (s *Session) evalErrs(err error) []*lexing.Error {
	if e := s.raised; e != nil {
		return []*lexing.Error{{Pos: e.Pos, Err: e}}
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		pos := lexPos(syntaxErr.Pos)
		return []*lexing.Error{{
			Pos: pos,
			Err: &ConfigError{Pos: pos, Err: errors.New(syntaxErr.Msg)},
		}}
	}

	var resolveErrs resolve.ErrorList
	if errors.As(err, &resolveErrs) {
		var errs []*lexing.Error
		for _, e := range resolveErrs {
			pos := lexPos(e.Pos)
			errs = append(errs, &lexing.Error{
				Pos: pos,
				Err: &ConfigError{Pos: pos, Err: errors.New(e.Msg)},
			})
		}
		return errs
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		pos := stackPos(evalErr.CallStack)
		var buildErr *BuildError
		if errors.As(evalErr, &buildErr) {
			return []*lexing.Error{{Pos: pos, Err: buildErr}}
		}
		return []*lexing.Error{{
			Pos: pos,
			Err: &ConfigError{Pos: pos, Err: evalErr},
		}}
	}

	return lexing.SingleErr(&ConfigError{
		Err: fmt.Errorf("evaluate config: %w", err),
	})
}
