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
	"fmt"
	"os"
	"strings"
)

func cmdTargets(args []string) error {
	flags := cmdFlags.New()
	config := new(buildConfig)
	declareBuildFlags(flags, config)
	flags.ParseArgs(args)

	w, err := loadWorkspace(config)
	if err != nil {
		return err
	}

	for _, t := range w.session.Targets() {
		var notes []string
		if t.Default {
			notes = append(notes, "default")
		}
		if t.HasRun {
			notes = append(notes, "runnable")
		}
		if !t.HasBuilder {
			notes = append(notes, "no builder")
		}

		line := t.Name
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, ", ") + ")"
		}
		if len(t.Deps) > 0 {
			line += ": " + strings.Join(t.Deps, " ")
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
