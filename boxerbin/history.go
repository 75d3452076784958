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

	"shanhu.io/misc/errcode"
)

func cmdHistory(args []string) error {
	flags := cmdFlags.New()
	config := new(buildConfig)
	declareBuildFlags(flags, config)
	n := flags.Int("n", 20, "number of results to show")
	target := flags.String("target", "", "only show results of a target")
	flags.ParseArgs(args)

	w, err := loadWorkspace(config)
	if err != nil {
		return err
	}
	h, err := w.openHistory()
	if err != nil {
		return errcode.Annotate(err, "open history")
	}
	if h == nil {
		return errcode.InvalidArgf("build history is disabled")
	}
	defer h.Close()

	entries, err := h.Recent(*target, *n)
	if err != nil {
		return err
	}
	marks := marksFor(os.Stdout)
	for _, e := range entries {
		r := e.Result
		mark := marks.ok
		if r.Error != "" || r.RunError != "" {
			mark = marks.failed
		}
		fmt.Printf(
			"%s %s #%d %s %s (%s)\n",
			mark, e.Start.Format("2006-01-02 15:04:05"), e.Build,
			r.Name, r.Status, r.Duration,
		)
	}
	return nil
}
