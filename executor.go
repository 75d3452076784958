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
	"time"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// State is a state of the resolver/executor.
type State int

// Executor states.
const (
	StateIdle State = iota
	StateResolving
	StateBuilding
	StateSucceeded
	StateFailed
	StateAllSucceeded
	StateAborted
)

var stateNames = map[State]string{
	StateIdle:         "idle",
	StateResolving:    "resolving",
	StateBuilding:     "building",
	StateSucceeded:    "succeeded",
	StateFailed:       "failed",
	StateAllSucceeded: "all-succeeded",
	StateAborted:      "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for state, name := range stateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return errcode.InvalidArgf("unknown state %q", b)
}

// BuildOptions are options for ResolveAndBuild.
type BuildOptions struct {
	// Run invokes the run closures of the requested targets right after
	// they are built. A requested target without a run closure whose
	// artifact is a ResolvedTarget with a run path runs that path.
	Run bool
}

type executor struct {
	s      *Session
	opts   *BuildOptions
	state  State
	roots  map[string]bool
	report *BuildReport
}

func (e *executor) transit(state State, target string) {
	if target == "" {
		e.s.ctx.logger.Printf("%s -> %s", e.state, state)
	} else {
		e.s.ctx.logger.Printf("%s -> %s %s", e.state, state, target)
	}
	e.state = state
}

func (e *executor) abort(err error) (*BuildReport, error) {
	e.transit(StateAborted, "")
	e.report.State = StateAborted
	return e.report, err
}

// ResolveAndBuild builds the named targets and their dependencies. When
// names is empty, it builds the default target. Each target is built at
// most once per session. The first failure aborts the build; the returned
// report still lists what was attempted.
//
// The error is a *ConfigError for unknown targets or an invalid graph, a
// *GraphError for dependency cycles, or a *BuildError when a builder or a
// run closure fails.
func (s *Session) ResolveAndBuild(names []string, opts *BuildOptions) (
	*BuildReport, error,
) {
	if errs := s.Freeze(); errs != nil {
		return nil, errs[0].Err
	}
	if opts == nil {
		opts = new(BuildOptions)
	}

	e := &executor{
		s:     s,
		opts:  opts,
		state: StateIdle,
		roots: make(map[string]bool),
		report: &BuildReport{
			Session:   s.id,
			Requested: names,
			State:     StateIdle,
			Start:     time.Now(),
		},
	}
	return e.execute(names)
}

func (e *executor) execute(names []string) (*BuildReport, error) {
	e.transit(StateResolving, "")
	g := e.s.graph
	roots, err := g.roots(names)
	if err != nil {
		return e.abort(err)
	}
	for _, t := range roots {
		e.roots[t.name] = true
	}

	order, err := g.buildOrder(roots)
	if err != nil {
		return e.abort(err)
	}
	for _, t := range order {
		e.report.Order = append(e.report.Order, t.name)
	}

	if _, err := e.s.ctx.getBuildPath(); err != nil {
		return e.abort(&BuildError{Err: err})
	}

	for _, t := range order {
		if err := e.build(t); err != nil {
			return e.abort(err)
		}
	}

	e.transit(StateAllSucceeded, "")
	e.report.State = StateAllSucceeded
	return e.report, nil
}

// cause returns the typed configuration error behind a script failure, if
// a builtin raised one.
func (e *executor) cause(err error) error {
	if raised := e.s.raised; raised != nil {
		e.s.raised = nil
		return raised
	}
	return err
}

func (e *executor) build(t *target) error {
	res := &TargetResult{Name: t.name}
	e.report.Targets = append(e.report.Targets, res)

	if a, ok := e.s.artifacts[t.name]; ok {
		res.Status = StatusReused
		res.Artifact = artifactSummary(a)
		if e.opts.Run && e.roots[t.name] {
			return e.run(t, a, res)
		}
		return nil
	}

	e.transit(StateBuilding, t.name)
	var artifact starlark.Value = starlark.None
	if t.builder != nil {
		deps := make(map[string]starlark.Value)
		for _, d := range t.deps {
			deps[d.name] = e.s.artifacts[d.name]
		}

		view := e.s.ctx.view(t.name, true)
		res.BuildNumber = view.BuildNumber()
		e.s.raised = nil

		start := time.Now()
		v, err := t.builder.Build(view, deps)
		res.Duration = time.Since(start)
		if err != nil {
			err = e.cause(err)
			res.Status = StatusFailed
			res.Error = err.Error()
			e.transit(StateFailed, t.name)
			return &BuildError{Target: t.name, Err: err}
		}
		if v != nil {
			v.Freeze()
			artifact = v
		}
	}

	e.s.artifacts[t.name] = artifact
	res.Status = StatusSucceeded
	res.Artifact = artifactSummary(artifact)
	e.transit(StateSucceeded, t.name)

	if e.opts.Run && e.roots[t.name] {
		return e.run(t, artifact, res)
	}
	return nil
}

func (e *executor) run(
	t *target, artifact starlark.Value, res *TargetResult,
) error {
	view := e.s.ctx.view(t.name, false)
	e.s.raised = nil

	var err error
	if t.runner != nil {
		res.Ran = true
		err = t.runner.Run(view, artifact)
	} else if r, ok := artifact.(*ResolvedTarget); ok && r.RunPath != "" {
		res.Ran = true
		err = r.run(view)
	}
	if err != nil {
		err = e.cause(err)
		res.RunError = err.Error()
		return &BuildError{Target: t.name, Run: true, Err: err}
	}
	return nil
}
