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
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"shanhu.io/misc/errcode"
)

// Context is the view of the build context that builders, run closures and
// adapters get. It cannot change the build path.
type Context interface {
	// Target returns the name of the target being built or run.
	Target() string

	// BuildPath returns the build root. The directory always exists.
	BuildPath() (string, error)

	// Out returns a path under the build root, and makes sure that its
	// parent directory exists.
	Out(ps ...string) (string, error)

	// Src returns a path under the work directory.
	Src(ps ...string) string

	// Var returns a variable in the substitution environment.
	Var(key string) (string, bool)

	// SetVar sets a variable in the substitution environment.
	SetVar(key, value string)

	// Subst expands ${key} and $key references to variables.
	Subst(s string) (string, error)

	// Version returns the "version" variable, checked as a semantic
	// version.
	Version() (string, error)

	// PlatformTriple returns the target platform triple.
	PlatformTriple() string

	// BuildNumber returns the number of builder invocations in the
	// session so far, including the current one.
	BuildNumber() int

	// Log returns the writer for build logs and tool outputs.
	Log() io.Writer

	// Logf logs a line.
	Logf(format string, args ...interface{})
}

// buildContext is the mutable state shared by a session.
type buildContext struct {
	workDir string

	buildPath    string
	pathSet      bool // build path overridden by the config
	materialized bool

	triple      string
	vars        map[string]string
	invocations int

	log    io.Writer
	logger *log.Logger
}

func newBuildContext(opts *Options) *buildContext {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	buildPath := opts.BuildPath
	if buildPath == "" {
		buildPath = "build"
	}
	if !filepath.IsAbs(buildPath) {
		buildPath = filepath.Join(workDir, buildPath)
	}

	triple := opts.Triple
	if triple == "" {
		triple = hostTriple()
	}

	vars := make(map[string]string)
	for k, v := range opts.Vars {
		vars[k] = v
	}

	w := opts.Log
	if w == nil {
		w = os.Stderr
	}

	return &buildContext{
		workDir:   workDir,
		buildPath: buildPath,
		triple:    triple,
		vars:      vars,
		log:       w,
		logger:    log.New(w, "", log.LstdFlags),
	}
}

func (c *buildContext) setBuildPath(p string) error {
	if c.materialized {
		return errcode.InvalidArgf(
			"build path %q is already in use", c.buildPath,
		)
	}
	if c.pathSet {
		return errcode.InvalidArgf(
			"build path is already set to %q", c.buildPath,
		)
	}
	if p == "" {
		return errcode.InvalidArgf("build path is empty")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.workDir, p)
	}
	c.buildPath = filepath.Clean(p)
	c.pathSet = true
	return nil
}

// getBuildPath returns the build path, and creates it on first call.
func (c *buildContext) getBuildPath() (string, error) {
	if c.materialized {
		return c.buildPath, nil
	}
	if err := os.MkdirAll(c.buildPath, 0755); err != nil {
		return "", fmt.Errorf("create build path: %w", err)
	}
	c.materialized = true
	return c.buildPath, nil
}

func (c *buildContext) out(ps ...string) (string, error) {
	root, err := c.getBuildPath()
	if err != nil {
		return "", err
	}
	if len(ps) == 0 {
		return root, nil
	}
	p := makeRelPath("", path.Join(ps...))
	return filepath.Join(root, filepath.FromSlash(p)), nil
}

func (c *buildContext) prepareOut(ps ...string) (string, error) {
	p, err := c.out(ps...)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", errcode.Annotate(err, "make output dir")
	}
	return p, nil
}

func (c *buildContext) src(ps ...string) string {
	if len(ps) == 0 {
		return c.workDir
	}
	p := path.Join(ps...)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.workDir, filepath.FromSlash(p))
}

func (c *buildContext) getVar(key string) (string, bool) {
	v, ok := c.vars[key]
	return v, ok
}

func (c *buildContext) setVar(key, value string) { c.vars[key] = value }

func (c *buildContext) subst(s string) (string, error) {
	var missing []string
	ret := os.Expand(s, func(key string) string {
		v, ok := c.vars[key]
		if !ok {
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		return "", errcode.NotFoundf(
			"undefined variable: %s", strings.Join(missing, ", "),
		)
	}
	return ret, nil
}

func (c *buildContext) version() (string, error) {
	v, ok := c.vars["version"]
	if !ok {
		return "", errcode.NotFoundf("version variable not set")
	}
	v = strings.TrimPrefix(v, "v")
	if !semver.IsValid("v" + v) {
		return "", errcode.InvalidArgf("invalid version %q", v)
	}
	return v, nil
}

// view creates the context view for a target. When invoke is true, the
// view is for a builder invocation, and increments the build counter.
func (c *buildContext) view(target string, invoke bool) *contextView {
	if invoke {
		c.invocations++
	}
	return &contextView{c: c, target: target, number: c.invocations}
}

type contextView struct {
	c      *buildContext
	target string
	number int
}

func (v *contextView) Target() string             { return v.target }
func (v *contextView) BuildPath() (string, error) { return v.c.getBuildPath() }

func (v *contextView) Out(ps ...string) (string, error) {
	return v.c.prepareOut(ps...)
}

func (v *contextView) Src(ps ...string) string        { return v.c.src(ps...) }
func (v *contextView) Var(key string) (string, bool)  { return v.c.getVar(key) }
func (v *contextView) SetVar(key, value string)       { v.c.setVar(key, value) }
func (v *contextView) Subst(s string) (string, error) { return v.c.subst(s) }
func (v *contextView) Version() (string, error)       { return v.c.version() }
func (v *contextView) PlatformTriple() string         { return v.c.triple }
func (v *contextView) BuildNumber() int               { return v.number }
func (v *contextView) Log() io.Writer                 { return v.c.log }

func (v *contextView) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	v.c.logger.Printf("[%s] %s", v.target, msg)
}
