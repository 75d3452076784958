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
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// ResolvedTarget is an artifact that lives on the filesystem: a build
// output path, and optionally an executable that runs the built target.
type ResolvedTarget struct {
	// Where build artifacts are stored on the filesystem.
	OutputPath string

	// Executable to run the built target. Empty if the target cannot run.
	RunPath string `json:",omitempty"`

	// Files in the output, if the producer keeps a manifest.
	Files []*FileStat `json:",omitempty"`
}

var (
	_ starlark.Value    = (*ResolvedTarget)(nil)
	_ starlark.HasAttrs = (*ResolvedTarget)(nil)
)

func (r *ResolvedTarget) String() string {
	return fmt.Sprintf("ResolvedTarget(%q)", r.OutputPath)
}

func (r *ResolvedTarget) Type() string         { return "ResolvedTarget" }
func (r *ResolvedTarget) Freeze()              {}
func (r *ResolvedTarget) Truth() starlark.Bool { return starlark.True }

func (r *ResolvedTarget) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: ResolvedTarget")
}

// Attr returns an attribute. ResolvedTarget has no setters, so it is
// immutable in scripts.
func (r *ResolvedTarget) Attr(name string) (starlark.Value, error) {
	switch name {
	case "output_path":
		return starlark.String(r.OutputPath), nil
	case "run_path":
		if r.RunPath == "" {
			return starlark.None, nil
		}
		return starlark.String(r.RunPath), nil
	case "files":
		var files []starlark.Value
		for _, f := range r.Files {
			files = append(files, starlark.String(f.Name))
		}
		l := starlark.NewList(files)
		l.Freeze()
		return l, nil
	}
	return nil, nil
}

func (r *ResolvedTarget) AttrNames() []string {
	return []string{"files", "output_path", "run_path"}
}

// run executes the run path in its own directory.
func (r *ResolvedTarget) run(c Context) error {
	if r.RunPath == "" {
		return nil
	}
	c.Logf("run %s", r.RunPath)
	j := &execJob{
		dir: filepath.Dir(r.RunPath),
		bin: r.RunPath,
		out: c.Log(),
	}
	cmd := j.command()
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return errcode.Internalf(
				"%s exit with %d", r.RunPath, exitErr.ExitCode(),
			)
		}
		return errcode.Annotatef(err, "run %s", r.RunPath)
	}
	return nil
}

// underRoot maps a script-supplied path onto the build root. Relative
// paths never escape root, and absolute paths must already be in it.
func underRoot(root, p string) (string, error) {
	if filepath.IsAbs(p) {
		p = filepath.Clean(p)
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(
			rel, ".."+string(filepath.Separator),
		) {
			return "", errcode.InvalidArgf(
				"%s is outside of the build root", p,
			)
		}
		return p, nil
	}
	rel := filepath.FromSlash(makeRelPath("", p))
	return filepath.Join(root, rel), nil
}

// artifactSummary returns a short description of an artifact for reports.
func artifactSummary(v starlark.Value) string {
	switch v := v.(type) {
	case nil, starlark.NoneType:
		return ""
	case *ResolvedTarget:
		return v.OutputPath
	case starlark.String:
		return string(v)
	}
	const maxLen = 200
	s := v.String()
	if len(s) > maxLen {
		n := maxLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return s
}
