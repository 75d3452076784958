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

// loadTracer tracks the targets currently being visited when walking the
// dependency graph.
type loadTracer struct {
	trace []string
	m     map[string]bool
}

func newLoadTracer() *loadTracer {
	return &loadTracer{
		m: make(map[string]bool),
	}
}

// push returns false if name is already on the stack.
func (t *loadTracer) push(name string) bool {
	if t.m[name] {
		return false
	}
	t.trace = append(t.trace, name)
	t.m[name] = true
	return true
}

func (t *loadTracer) pop() {
	n := len(t.trace)
	if n == 0 {
		return
	}
	last := t.trace[n-1]
	delete(t.m, last)
	t.trace = t.trace[:n-1]
}

// cycle returns the path from the first visit of name to the top of the
// stack, closed with name again.
func (t *loadTracer) cycle(name string) []string {
	for i, n := range t.trace {
		if n != name {
			continue
		}
		var ret []string
		ret = append(ret, t.trace[i:]...)
		return append(ret, name)
	}
	return nil
}
