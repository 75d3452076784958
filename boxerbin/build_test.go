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
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"shanhu.io/boxer"
)

func TestParseVars(t *testing.T) {
	got, err := parseVars("version=1.2.0,channel=beta,empty=")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"version": "1.2.0",
		"channel": "beta",
		"empty":   "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	if got, err := parseVars(""); err != nil || len(got) != 0 {
		t.Errorf("empty vars got %v, %v", got, err)
	}
	for _, bad := range []string{"novalue", "=x", "a=1,,b=2"} {
		if _, err := parseVars(bad); err == nil {
			t.Errorf("parse %q got no error", bad)
		}
	}
}

func TestPrintReport(t *testing.T) {
	r := &boxer.BuildReport{
		State: boxer.StateAborted,
		Targets: []*boxer.TargetResult{{
			Name:     "payload",
			Status:   boxer.StatusReused,
			Artifact: "build/payload",
		}, {
			Name:     "msi",
			Status:   boxer.StatusFailed,
			Error:    "light failed",
			Duration: time.Second,
		}},
	}

	buf := new(bytes.Buffer)
	printReport(buf, r)
	want := strings.Join([]string{
		"-- payload => build/payload",
		"!! msi (1s)",
		"   error: light failed",
		"aborted: 0 targets built",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("got report:\n%s\nwant:\n%s", got, want)
	}
}
