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
	"strings"

	"shanhu.io/misc/errcode"
	"shanhu.io/misc/flagutil"
)

var cmdFlags = flagutil.NewFactory("boxer")

type buildConfig struct {
	config    string
	buildPath string
	triple    string
	vars      string
}

func declareBuildFlags(flags *flagutil.FlagSet, c *buildConfig) {
	flags.StringVar(&c.config, "config", "", "config script file")
	flags.StringVar(&c.buildPath, "build_path", "", "build output directory")
	flags.StringVar(&c.triple, "triple", "", "target platform triple")
	flags.StringVar(
		&c.vars, "vars", "",
		"comma separated list of key=value build variables",
	)
}

func parseVars(s string) (map[string]string, error) {
	vars := make(map[string]string)
	if s == "" {
		return vars, nil
	}
	for _, kv := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, errcode.InvalidArgf("invalid variable %q", kv)
		}
		vars[k] = v
	}
	return vars, nil
}
