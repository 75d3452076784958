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
	"os"

	"github.com/kballard/go-shellquote"
	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// execTool runs an external packaging or signing tool, such as WiX,
// signtool, codesign or snapcraft.
//
//	exec_tool(ctx, command, dir=None, output=None, env={})
//
// command is expanded with the variables of the build context and then
// split like a shell would. The tool runs in dir under the build root.
// The result is a ResolvedTarget of output, or of dir if output is not
// given.
type execTool struct{}

func (t *execTool) Name() string { return "exec_tool" }

func (t *execTool) Produce(c Context, args *Args) (starlark.Value, error) {
	command, err := args.String("command")
	if err != nil {
		return nil, err
	}
	dir, err := args.OptString("dir", "")
	if err != nil {
		return nil, err
	}
	output, err := args.OptString("output", "")
	if err != nil {
		return nil, err
	}
	env, err := args.StringMap("env")
	if err != nil {
		return nil, err
	}
	if err := args.Done(); err != nil {
		return nil, err
	}

	line, err := c.Subst(command)
	if err != nil {
		return nil, errcode.Annotate(err, "expand command")
	}
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, errcode.Annotate(err, "parse command")
	}
	if len(argv) == 0 {
		return nil, errcode.InvalidArgf("command is empty")
	}
	for k, v := range env {
		expanded, err := c.Subst(v)
		if err != nil {
			return nil, errcode.Annotatef(err, "expand env %s", k)
		}
		env[k] = expanded
	}

	root, err := c.BuildPath()
	if err != nil {
		return nil, err
	}
	workDir, err := underRoot(root, dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, errcode.Annotate(err, "make work dir")
	}

	c.Logf("exec %s", shellquote.Join(argv...))
	j := &execJob{
		dir:  workDir,
		bin:  argv[0],
		args: argv[1:],
		env:  env,
		out:  c.Log(),
	}
	if err := j.command().Run(); err != nil {
		return nil, errcode.Annotatef(err, "exec %s", argv[0])
	}

	if output == "" {
		return &ResolvedTarget{OutputPath: workDir}, nil
	}
	out, err := underRoot(root, output)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(out); err != nil {
		return nil, errcode.Annotatef(err, "check output %s", output)
	}
	return &ResolvedTarget{OutputPath: out}, nil
}
