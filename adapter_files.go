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
	"io"
	"os"
	"path"
	"path/filepath"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// installFiles lays out files into a directory under the build root, for
// platform formats that package a directory tree, like AppImage, snaps or
// MSI staging areas.
//
//	install_files(ctx, dir, files, run=None)
//
// files maps the path in the directory to the source file. When run is
// set, it names the installed file that runs the packaged app.
type installFiles struct{}

func (i *installFiles) Name() string { return "install_files" }

func (i *installFiles) Produce(c Context, args *Args) (starlark.Value, error) {
	dir, err := args.String("dir")
	if err != nil {
		return nil, err
	}
	files, err := args.StringMap("files")
	if err != nil {
		return nil, err
	}
	run, err := args.OptString("run", "")
	if err != nil {
		return nil, err
	}
	if err := args.Done(); err != nil {
		return nil, err
	}

	if run != "" {
		if _, ok := files[run]; !ok {
			return nil, errcode.InvalidArgf(
				"run file %q is not installed", run,
			)
		}
	}

	root, err := c.BuildPath()
	if err != nil {
		return nil, err
	}
	outDir, err := underRoot(root, dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errcode.Annotate(err, "make output dir")
	}

	var stats []*FileStat
	for _, dest := range sortedKeys(files) {
		src, err := c.Subst(files[dest])
		if err != nil {
			return nil, errcode.Annotatef(err, "expand %s", dest)
		}
		src = c.Src(src)

		name := makeRelPath("", dest)
		to := filepath.Join(outDir, filepath.FromSlash(name))
		if err := installFile(src, to); err != nil {
			return nil, errcode.Annotatef(err, "install %s", name)
		}
		stat, err := newFileStat(name, to)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	c.Logf("installed %d files into %s", len(stats), dir)

	ret := &ResolvedTarget{OutputPath: outDir, Files: stats}
	if run != "" {
		p := makeRelPath("", path.Clean(run))
		ret.RunPath = filepath.Join(outDir, filepath.FromSlash(p))
	}
	return ret, nil
}

// installFile copies a regular file, keeping its permission bits.
func installFile(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errcode.InvalidArgf("%s is not a regular file", from)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return err
	}

	fin, err := os.Open(from)
	if err != nil {
		return err
	}
	defer fin.Close()

	fout, err := os.OpenFile(
		to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm(),
	)
	if err != nil {
		return err
	}
	defer fout.Close()

	if _, err := io.Copy(fout, fin); err != nil {
		return err
	}
	if err := fout.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	return fout.Close()
}
