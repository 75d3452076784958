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
	"path/filepath"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonx"
	"shanhu.io/misc/osutil"
)

const workspaceFile = "WORKSPACE.boxer"

// Workspace is the optional workspace configuration in the work directory.
// The file is in jsonx, where every line of a multi-line object ends with
// a comma:
//
//	{
//	    BuildPath: "out",
//	    Vars: {version: "1.2.0"},
//	}
type Workspace struct {
	// Config is the name of the config script; defaults to BUILD.boxer.
	Config string `json:",omitempty"`

	BuildPath string            `json:",omitempty"`
	Triple    string            `json:",omitempty"`
	Vars      map[string]string `json:",omitempty"`

	// History is the build history database file, relative to the build
	// path. Defaults to history.db. Set to "-" to disable.
	History string `json:",omitempty"`
}

// ReadWorkspace reads the workspace configuration in dir. It returns an
// empty workspace if the file does not exist.
func ReadWorkspace(dir string) (*Workspace, error) {
	ws := new(Workspace)
	f := filepath.Join(dir, workspaceFile)
	ok, err := osutil.IsRegular(f)
	if err != nil {
		return nil, errcode.Annotate(err, "check workspace file")
	}
	if ok {
		if err := jsonx.ReadFile(f, ws); err != nil {
			return nil, errcode.Annotate(err, "read workspace file")
		}
	}
	if ws.Config == "" {
		ws.Config = ConfigFile
	}
	if ws.History == "" {
		ws.History = "history.db"
	}
	return ws, nil
}

// Options returns the session options of the workspace, for config
// scripts in dir.
func (ws *Workspace) Options(dir string) *Options {
	vars := make(map[string]string)
	for k, v := range ws.Vars {
		vars[k] = v
	}
	return &Options{
		WorkDir:   dir,
		BuildPath: ws.BuildPath,
		Triple:    ws.Triple,
		Vars:      vars,
	}
}
