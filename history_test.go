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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestHistory(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	start := time.Date(2022, 5, 1, 10, 0, 0, 0, time.UTC)
	first := &BuildReport{
		Session:   "s1",
		Requested: []string{"msi"},
		State:     StateAllSucceeded,
		Start:     start,
		Targets: []*TargetResult{{
			Name:        "payload",
			Status:      StatusSucceeded,
			Artifact:    "build/payload",
			BuildNumber: 1,
			Duration:    time.Second,
		}, {
			Name:        "msi",
			Status:      StatusSucceeded,
			Artifact:    "build/app.msi",
			BuildNumber: 2,
			Duration:    2 * time.Second,
			Ran:         true,
		}},
	}
	second := &BuildReport{
		Session: "s2",
		State:   StateAborted,
		Start:   start.Add(time.Hour),
		Targets: []*TargetResult{{
			Name:   "msi",
			Status: StatusFailed,
			Error:  "candle failed",
		}},
	}
	for _, r := range []*BuildReport{first, second} {
		if err := h.Record(r); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := h.Recent("msi", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	latest := entries[0]
	if latest.Session != "s2" || latest.State != StateAborted {
		t.Errorf("got latest entry %+v", latest)
	}
	if diff := cmp.Diff(second.Targets[0], latest.Result); diff != "" {
		t.Errorf("latest result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.Targets[1], entries[1].Result); diff != "" {
		t.Errorf("first result mismatch (-want +got):\n%s", diff)
	}
	if !entries[1].Start.Equal(start) {
		t.Errorf("got start %s, want %s", entries[1].Start, start)
	}

	all, err := h.Recent("", 2)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range all {
		names = append(names, e.Result.Name)
	}
	if diff := cmp.Diff([]string{"msi", "payload"}, names); diff != "" {
		t.Errorf("recent names mismatch (-want +got):\n%s", diff)
	}
}
