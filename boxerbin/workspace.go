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

package boxerbin

import (
	"os"
	"path/filepath"

	"shanhu.io/boxer"
	"shanhu.io/misc/errcode"
	"shanhu.io/text/lexing"
)

type workspace struct {
	dir     string
	ws      *boxer.Workspace
	session *boxer.Session
}

func loadWorkspace(c *buildConfig) (*workspace, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errcode.Annotate(err, "get work dir")
	}
	ws, err := boxer.ReadWorkspace(wd)
	if err != nil {
		return nil, err
	}

	vars, err := parseVars(c.vars)
	if err != nil {
		return nil, err
	}
	if c.config != "" {
		ws.Config = c.config
	}
	opts := ws.Options(wd)
	if c.buildPath != "" {
		opts.BuildPath = c.buildPath
	}
	if c.triple != "" {
		opts.Triple = c.triple
	}
	for k, v := range vars {
		opts.Vars[k] = v
	}

	f := ws.Config
	if !filepath.IsAbs(f) {
		f = filepath.Join(wd, f)
	}
	s, errs := boxer.Evaluate(f, nil, opts)
	if errs != nil {
		lexing.FprintErrs(os.Stderr, errs, wd)
		return nil, errcode.InvalidArgf("config got %d errors", len(errs))
	}
	return &workspace{dir: wd, ws: ws, session: s}, nil
}

func (w *workspace) openHistory() (*boxer.History, error) {
	if w.ws.History == "-" {
		return nil, nil
	}
	f := w.ws.History
	if !filepath.IsAbs(f) {
		root, err := w.session.BuildPath()
		if err != nil {
			return nil, err
		}
		f = filepath.Join(root, f)
	}
	return boxer.OpenHistory(f)
}
