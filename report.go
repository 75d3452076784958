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
	"time"
)

// Status is the result of a target in a build.
type Status string

// Target statuses.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusReused    Status = "reused" // built earlier in the same session
)

// TargetResult is the result of one target in a build.
type TargetResult struct {
	Name     string
	Status   Status
	Artifact string `json:",omitempty"` // artifact summary
	Error    string `json:",omitempty"`

	BuildNumber int           `json:",omitempty"`
	Duration    time.Duration `json:",omitempty"`

	Ran      bool   `json:",omitempty"`
	RunError string `json:",omitempty"`
}

// BuildReport lists the results of the targets of one ResolveAndBuild
// call, in build order.
type BuildReport struct {
	Session   string
	Requested []string `json:",omitempty"`
	Order     []string `json:",omitempty"`
	State     State
	Start     time.Time
	Targets   []*TargetResult
}

// Target returns the result of the named target, or nil if the target was
// not attempted.
func (r *BuildReport) Target(name string) *TargetResult {
	for _, t := range r.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Built returns the names of the targets that were built in this call.
func (r *BuildReport) Built() []string {
	var names []string
	for _, t := range r.Targets {
		if t.Status == StatusSucceeded {
			names = append(names, t.Name)
		}
	}
	return names
}

// Succeeded tells if all requested targets are built.
func (r *BuildReport) Succeeded() bool { return r.State == StateAllSucceeded }
