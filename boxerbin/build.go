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
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"shanhu.io/boxer"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/jsonutil"
)

const reportFile = "boxer-report.json"

func cmdBuild(args []string) error { return build(args, false) }
func cmdRun(args []string) error   { return build(args, true) }

func build(args []string, run bool) error {
	flags := cmdFlags.New()
	config := new(buildConfig)
	declareBuildFlags(flags, config)
	args = flags.ParseArgs(args)

	w, err := loadWorkspace(config)
	if err != nil {
		return err
	}

	opts := &boxer.BuildOptions{Run: run}
	report, buildErr := w.session.ResolveAndBuild(args, opts)
	if report == nil {
		return buildErr
	}

	printReport(os.Stderr, report)
	if err := saveReport(w, report); err != nil {
		log.Printf("save report: %s", err)
	}
	return buildErr
}

func saveReport(w *workspace, r *boxer.BuildReport) error {
	root, err := w.session.BuildPath()
	if err != nil {
		return err
	}
	f := filepath.Join(root, reportFile)
	if err := jsonutil.WriteFile(f, r); err != nil {
		return errcode.Annotate(err, "write report")
	}

	h, err := w.openHistory()
	if err != nil {
		return errcode.Annotate(err, "open history")
	}
	if h == nil {
		return nil
	}
	defer h.Close()
	return h.Record(r)
}

type statusMarks struct {
	ok, reused, failed string
}

var (
	plainMarks = &statusMarks{ok: "ok", reused: "--", failed: "!!"}
	colorMarks = &statusMarks{
		ok:     "\x1b[32mok\x1b[0m",
		reused: "\x1b[36m--\x1b[0m",
		failed: "\x1b[31m!!\x1b[0m",
	}
)

func marksFor(w io.Writer) *statusMarks {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return colorMarks
	}
	return plainMarks
}

func printReport(w io.Writer, r *boxer.BuildReport) {
	marks := marksFor(w)
	for _, t := range r.Targets {
		var mark string
		switch t.Status {
		case boxer.StatusSucceeded:
			mark = marks.ok
		case boxer.StatusReused:
			mark = marks.reused
		default:
			mark = marks.failed
		}

		line := fmt.Sprintf("%s %s", mark, t.Name)
		if t.Artifact != "" {
			line += " => " + t.Artifact
		}
		if t.Duration > 0 {
			line += fmt.Sprintf(" (%s)", t.Duration)
		}
		fmt.Fprintln(w, line)

		if t.Error != "" {
			fmt.Fprintf(w, "   error: %s\n", t.Error)
		}
		if t.RunError != "" {
			fmt.Fprintf(w, "   run error: %s\n", t.RunError)
		}
	}
	fmt.Fprintf(w, "%s: %d targets built\n", r.State, len(r.Built()))
}
