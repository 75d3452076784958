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
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadWorkspace(t *testing.T) {
	dir := t.TempDir()
	ws, err := ReadWorkspace(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := &Workspace{Config: ConfigFile, History: "history.db"}
	if diff := cmp.Diff(want, ws); diff != "" {
		t.Errorf("default workspace mismatch (-want +got):\n%s", diff)
	}

	content := `{
		BuildPath: "out",
		Triple: "aarch64-apple-darwin", // comment
		Vars: {"version": "1.2.0"},
	}`
	f := filepath.Join(dir, workspaceFile)
	if err := os.WriteFile(f, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ws, err = ReadWorkspace(dir)
	if err != nil {
		t.Fatal(err)
	}
	want = &Workspace{
		Config:    ConfigFile,
		BuildPath: "out",
		Triple:    "aarch64-apple-darwin",
		Vars:      map[string]string{"version": "1.2.0"},
		History:   "history.db",
	}
	if diff := cmp.Diff(want, ws); diff != "" {
		t.Errorf("workspace mismatch (-want +got):\n%s", diff)
	}

	opts := ws.Options(dir)
	s := NewSession(opts)
	root, err := s.BuildPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out"); root != want {
		t.Errorf("got build path %q, want %q", root, want)
	}
	if got := s.PlatformTriple(); got != "aarch64-apple-darwin" {
		t.Errorf("got triple %q", got)
	}
}
