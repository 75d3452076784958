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
	"compress/gzip"
	"os"
	"sort"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/tarutil"
)

// tarBundle packs files into a gzipped tarball under the build root.
//
//	tar_bundle(ctx, output, files)
//
// files maps the path in the tarball to the source file. Source paths are
// expanded with the build variables; relative ones are under the work
// directory.
type tarBundle struct{}

func (b *tarBundle) Name() string { return "tar_bundle" }

func sortedKeys(m map[string]string) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *tarBundle) Produce(c Context, args *Args) (starlark.Value, error) {
	output, err := args.String("output")
	if err != nil {
		return nil, err
	}
	files, err := args.StringMap("files")
	if err != nil {
		return nil, err
	}
	if err := args.Done(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errcode.InvalidArgf("no files to bundle")
	}

	ts := tarutil.NewStream()
	var stats []*FileStat
	for _, dest := range sortedKeys(files) {
		src, err := c.Subst(files[dest])
		if err != nil {
			return nil, errcode.Annotatef(err, "expand %s", dest)
		}
		src = c.Src(src)
		name := makeRelPath("", dest)

		stat, err := newFileStat(name, src)
		if err != nil {
			return nil, errcode.Annotatef(err, "stat %s", src)
		}
		stats = append(stats, stat)
		ts.AddFile(name, tarutil.ModeMeta(int64(stat.Mode)&0777), src)
	}

	out, err := c.Out(output)
	if err != nil {
		return nil, errcode.Annotate(err, "prepare output")
	}
	if err := writeTarGz(out, ts); err != nil {
		return nil, errcode.Annotatef(err, "write %s", output)
	}
	c.Logf("bundled %d files into %s", len(stats), output)
	return &ResolvedTarget{OutputPath: out, Files: stats}, nil
}

func writeTarGz(f string, ts *tarutil.Stream) error {
	fout, err := os.Create(f)
	if err != nil {
		return err
	}
	defer fout.Close()

	gz := gzip.NewWriter(fout)
	if _, err := ts.WriteTo(gz); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	if err := fout.Sync(); err != nil {
		return err
	}
	return fout.Close()
}
