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
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/tarutil"
	"shanhu.io/virgo/dock"
)

// dockerRun runs a command inside a container, for packaging steps that
// need a toolchain of another platform.
//
//	docker_run(ctx, image, command, workdir=None, inputs={}, outputs={},
//	    envs={}, pull=False, digest=None)
//
// inputs maps container paths to source files that are copied in before
// the command starts. outputs maps output paths under the build root to
// container paths that are copied out after the command exits. When pull
// is true, the image is pulled first, pinned to digest if given.
type dockerRun struct {
	client *dock.Client
}

func newDockerRun(client *dock.Client) *dockerRun {
	return &dockerRun{client: client}
}

func (r *dockerRun) Name() string { return "docker_run" }

func (r *dockerRun) docker() *dock.Client {
	if r.client == nil {
		r.client = dock.NewUnixClient("")
	}
	return r.client
}

func (r *dockerRun) Produce(c Context, args *Args) (starlark.Value, error) {
	image, err := args.String("image")
	if err != nil {
		return nil, err
	}
	command, err := args.Strings("command")
	if err != nil {
		return nil, err
	}
	workDir, err := args.OptString("workdir", "")
	if err != nil {
		return nil, err
	}
	inputs, err := args.StringMap("inputs")
	if err != nil {
		return nil, err
	}
	outputs, err := args.StringMap("outputs")
	if err != nil {
		return nil, err
	}
	envs, err := args.StringMap("envs")
	if err != nil {
		return nil, err
	}
	pull, err := args.OptBool("pull", false)
	if err != nil {
		return nil, err
	}
	digest, err := args.OptString("digest", "")
	if err != nil {
		return nil, err
	}
	if digest != "" && !pull {
		return nil, errcode.InvalidArgf("digest is only used with pull")
	}
	if err := args.Done(); err != nil {
		return nil, err
	}

	for i, arg := range command {
		expanded, err := c.Subst(arg)
		if err != nil {
			return nil, errcode.Annotatef(err, "expand command arg %d", i)
		}
		command[i] = expanded
	}
	for k, v := range envs {
		expanded, err := c.Subst(v)
		if err != nil {
			return nil, errcode.Annotatef(err, "expand env %s", k)
		}
		envs[k] = expanded
	}

	client := r.docker()
	if pull {
		c.Logf("pull docker %s", image)
		if err := pullImage(client, image, digest); err != nil {
			return nil, errcode.Annotatef(err, "pull %s", image)
		}
	}

	contConfig := &dock.ContConfig{
		Cmd:     command,
		WorkDir: workDir,
		Env:     envs,
	}
	cont, err := dock.CreateCont(client, image, contConfig)
	if err != nil {
		return nil, errcode.Annotate(err, "create container")
	}
	defer cont.Drop()

	if len(inputs) > 0 {
		ts := tarutil.NewStream()
		for _, dest := range sortedKeys(inputs) {
			src, err := c.Subst(inputs[dest])
			if err != nil {
				return nil, errcode.Annotatef(err, "expand input %s", dest)
			}
			ts.AddFile(makeRelPath("", dest), new(tarutil.Meta), c.Src(src))
		}
		if err := dock.CopyInTarStream(cont, ts, "/"); err != nil {
			return nil, errcode.Annotate(err, "copy input")
		}
	}

	c.Logf("docker run %s", image)
	if err := cont.Start(); err != nil {
		return nil, errcode.Annotate(err, "start container")
	}
	if err := cont.FollowLogs(c.Log()); err != nil {
		return nil, errcode.Annotate(err, "stream logs")
	}

	status, err := cont.Wait(dock.NotRunning)
	if err != nil {
		return nil, errcode.Annotate(err, "wait container")
	}

	var stats []*FileStat
	for _, to := range sortedKeys(outputs) {
		from := outputs[to]
		f, err := c.Out(to)
		if err != nil {
			return nil, errcode.Annotatef(err, "prepare output: %s", to)
		}
		if err := cont.CopyOutFile(from, f); err != nil {
			if status == 0 {
				return nil, errcode.Annotatef(err, "copy %s", to)
			}
			c.Logf("copy %s: %s", to, err)
			continue
		}
		if status == 0 {
			stat, err := newFileStat(makeRelPath("", to), f)
			if err != nil {
				return nil, err
			}
			stats = append(stats, stat)
		}
	}

	if status != 0 {
		return nil, errcode.Internalf("exit with %d", status)
	}

	root, err := c.BuildPath()
	if err != nil {
		return nil, err
	}
	ret := &ResolvedTarget{OutputPath: root, Files: stats}
	if len(stats) == 1 {
		ret.OutputPath = filepath.Join(
			root, filepath.FromSlash(stats[0].Name),
		)
	}
	return ret, nil
}

// pullImage pulls an image. When digest is not empty, the image is pulled
// by the digest, tagged with the image's tag, and checked after.
func pullImage(client *dock.Client, image, digest string) error {
	repo, tag := dock.ParseImageTag(image)
	if tag == "" {
		tag = "latest"
	}
	srcTag := tag
	if digest != "" {
		srcTag = digest
	}
	if err := dock.PullImage(client, repo, srcTag); err != nil {
		return errcode.Annotate(err, "pull image")
	}
	if srcTag != tag {
		from := fmt.Sprintf("%s@%s", repo, srcTag)
		if err := dock.TagImage(client, from, repo, tag); err != nil {
			return errcode.Annotate(err, "retag image")
		}
	}
	if digest == "" {
		return nil
	}

	info, err := dock.InspectImage(client, fmt.Sprintf("%s:%s", repo, tag))
	if err != nil {
		return errcode.Annotate(err, "inspect image")
	}
	want := repo + "@" + digest
	for _, d := range info.RepoDigests {
		if strings.EqualFold(d, want) {
			return nil
		}
	}
	return errcode.Internalf("image digest mismatch, want %s", digest)
}
