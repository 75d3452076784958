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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testGraph(t *testing.T, edges [][]string) *targetGraph {
	t.Helper()
	g := newTargetGraph()
	for _, e := range edges {
		tgt, err := g.register(e[0], nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range e[1:] {
			tgt.addDep(d, nil)
		}
	}
	return g
}

func orderNames(ts []*target) []string {
	var names []string
	for _, t := range ts {
		names = append(names, t.name)
	}
	return names
}

func TestBuildOrder(t *testing.T) {
	diamond := [][]string{
		{"a"},
		{"b", "a"},
		{"c", "a"},
		{"d", "b", "c"},
	}

	for _, test := range []struct {
		name  string
		edges [][]string
		roots []string
		want  []string
	}{{
		name:  "diamond",
		edges: diamond,
		roots: []string{"d"},
		want:  []string{"a", "b", "c", "d"},
	}, {
		name:  "default",
		edges: diamond,
		want:  []string{"a"},
	}, {
		name:  "dedup roots",
		edges: diamond,
		roots: []string{"c", "b", "c"},
		want:  []string{"a", "b", "c"},
	}, {
		name:  "declaration order",
		edges: [][]string{{"x"}, {"y"}, {"z", "y", "x"}},
		roots: []string{"z"},
		want:  []string{"y", "x", "z"},
	}, {
		name:  "chain",
		edges: [][]string{{"app", "lib"}, {"lib", "base"}, {"base"}},
		roots: []string{"app"},
		want:  []string{"base", "lib", "app"},
	}} {
		t.Run(test.name, func(t *testing.T) {
			g := testGraph(t, test.edges)
			roots, err := g.roots(test.roots)
			if err != nil {
				t.Fatal(err)
			}
			order, err := g.buildOrder(roots)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, orderNames(order)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildOrderCycle(t *testing.T) {
	for _, test := range []struct {
		name  string
		edges [][]string
		root  string
		want  []string
	}{{
		name:  "two",
		edges: [][]string{{"a", "b"}, {"b", "a"}},
		root:  "a",
		want:  []string{"a", "b", "a"},
	}, {
		name:  "self",
		edges: [][]string{{"a", "a"}},
		root:  "a",
		want:  []string{"a", "a"},
	}, {
		name:  "tail",
		edges: [][]string{{"top", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}},
		root:  "top",
		want:  []string{"a", "b", "c", "a"},
	}} {
		t.Run(test.name, func(t *testing.T) {
			g := testGraph(t, test.edges)
			roots, err := g.roots([]string{test.root})
			if err != nil {
				t.Fatal(err)
			}
			_, err = g.buildOrder(roots)
			var graphErr *GraphError
			if !errors.As(err, &graphErr) {
				t.Fatalf("got error %v, want graph error", err)
			}
			if diff := cmp.Diff(test.want, graphErr.Cycle); diff != "" {
				t.Errorf("cycle mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildOrderUnknown(t *testing.T) {
	g := testGraph(t, [][]string{{"a", "ghost"}})

	_, err := g.roots([]string{"nope"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Name != "nope" {
		t.Errorf("unknown root got %v, want config error", err)
	}

	roots, err := g.roots(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.buildOrder(roots); !errors.As(err, &cfgErr) {
		t.Errorf("unknown dep got %v, want config error", err)
	}

	if _, err := newTargetGraph().roots(nil); !errors.As(err, &cfgErr) {
		t.Errorf("empty graph got %v, want config error", err)
	}
}

func TestLoadTracer(t *testing.T) {
	tr := newLoadTracer()
	for _, name := range []string{"a", "b", "c"} {
		if !tr.push(name) {
			t.Fatalf("push %q failed", name)
		}
	}
	if tr.push("b") {
		t.Error("pushed b twice")
	}
	if got, want := tr.cycle("b"), []string{"b", "c", "b"}; !cmp.Equal(
		got, want,
	) {
		t.Errorf("got cycle %q, want %q", got, want)
	}

	tr.pop()
	tr.pop()
	if !tr.push("b") {
		t.Error("push b after pop failed")
	}
}
