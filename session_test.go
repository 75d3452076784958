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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.starlark.net/starlark"
)

func testOptions(t *testing.T) *Options {
	t.Helper()
	return &Options{
		WorkDir: t.TempDir(),
		Log:     io.Discard,
	}
}

func evalScript(t *testing.T, script string) *Session {
	t.Helper()
	s, errs := Evaluate("BUILD.boxer", script, testOptions(t))
	if errs != nil {
		for _, err := range errs {
			t.Error(err.Err)
		}
		t.Fatalf("evaluate got %d errors", len(errs))
	}
	return s
}

func evalErr(t *testing.T, script string) *ConfigError {
	t.Helper()
	s, errs := Evaluate("BUILD.boxer", script, testOptions(t))
	if errs == nil {
		t.Fatalf("evaluate succeeded with targets %v", s.Targets())
	}
	var cfgErr *ConfigError
	if !errors.As(errs[0].Err, &cfgErr) {
		t.Fatalf("got error %v, want config error", errs[0].Err)
	}
	return cfgErr
}

const diamondScript = `
def build_a(ctx, deps):
    return "a"

def build_b(ctx, deps):
    return deps["a"] + "b"

def build_c(ctx, deps):
    return deps["a"] + "c"

def build_d(ctx, deps):
    return deps["b"] + deps["c"] + "d"

register_target("a", build_a)
register_target("b", build_b, depends_on = ["a"])
register_target("c", build_c, depends_on = ["a"])
register_target("d", build_d, depends_on = ["b", "c"], default = True)
`

func TestEvaluateDiamond(t *testing.T) {
	s := evalScript(t, diamondScript)
	if got := s.DefaultTarget(); got != "d" {
		t.Errorf("got default %q, want d", got)
	}

	report, err := s.ResolveAndBuild(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Succeeded() {
		t.Errorf("build state is %s", report.State)
	}
	want := []string{"a", "b", "c", "d"}
	if diff := cmp.Diff(want, report.Built()); diff != "" {
		t.Errorf("built mismatch (-want +got):\n%s", diff)
	}
	d := report.Target("d")
	if d.Artifact != "abacd" {
		t.Errorf("got artifact %q, want abacd", d.Artifact)
	}
	if d.BuildNumber != 4 {
		t.Errorf("got build number %d, want 4", d.BuildNumber)
	}

	again, err := s.ResolveAndBuild([]string{"d", "b"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if built := again.Built(); len(built) != 0 {
		t.Errorf("rebuilt %q in the same session", built)
	}
	for _, r := range again.Targets {
		if r.Status != StatusReused {
			t.Errorf("target %q got status %s", r.Name, r.Status)
		}
	}
}

func TestEvaluateCycle(t *testing.T) {
	s := evalScript(t, `
def noop(ctx, deps):
    return None

a = register_target("a", noop)
b = register_target("b", noop)
a.add_dependency("b")
b.add_dependency("a")
`)
	report, err := s.ResolveAndBuild([]string{"a"}, nil)
	var graphErr *GraphError
	if !errors.As(err, &graphErr) {
		t.Fatalf("got error %v, want graph error", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "a"}, graphErr.Cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if len(report.Targets) != 0 {
		t.Errorf("attempted %d targets", len(report.Targets))
	}
	if report.State != StateAborted {
		t.Errorf("got state %s, want aborted", report.State)
	}
}

func TestEvaluateDuplicate(t *testing.T) {
	cfgErr := evalErr(t, `
register_target("app")
register_target("app")
`)
	if cfgErr.Name != "app" {
		t.Errorf("got name %q, want app", cfgErr.Name)
	}
	if cfgErr.Pos == nil || cfgErr.Pos.Line != 3 {
		t.Errorf("got pos %v, want line 3", cfgErr.Pos)
	}
}

func TestEvaluateErrors(t *testing.T) {
	for _, test := range []struct {
		name   string
		script string
		want   string
		line   int
	}{{
		name:   "non string dep",
		script: `register_target("a", depends_on = [1])`,
		want:   "got int, want string",
		line:   1,
	}, {
		name:   "non callable builder",
		script: `register_target("a", "b")`,
		want:   "want callable or None",
		line:   1,
	}, {
		name: "builder params",
		script: `
def f(ctx):
    return None
register_target("a", f)
`,
		want: "must take 2",
		line: 4,
	}, {
		name:   "unknown dep",
		script: `register_target("a", depends_on = ["ghost"])`,
		want:   `dependency "ghost" not found`,
		line:   1,
	}, {
		name:   "unknown default",
		script: `set_default_target("ghost")`,
		want:   "default target not found",
		line:   1,
	}, {
		name:   "add dependency type",
		script: `register_target("a").add_dependency(3)`,
		want:   "add_dependency",
		line:   1,
	}, {
		name: "build path after use",
		script: `
get_build_path()
set_build_path("out")
`,
		want: "already in use",
		line: 3,
	}, {
		name:   "syntax",
		script: "register_target(\"a\"",
		want:   "",
		line:   1,
	}, {
		name:   "undefined",
		script: `register("a")`,
		want:   "undefined",
		line:   1,
	}, {
		name:   "fail",
		script: `fail("boom")`,
		want:   "boom",
		line:   1,
	}, {
		name: "nested fail",
		script: `
def check(x):
    fail("bad " + x)

check("value")
`,
		want: "bad value",
		line: 3,
	}} {
		t.Run(test.name, func(t *testing.T) {
			cfgErr := evalErr(t, test.script)
			if !strings.Contains(cfgErr.Error(), test.want) {
				t.Errorf("got error %q, want %q", cfgErr, test.want)
			}
			if cfgErr.Pos == nil {
				t.Fatal("got error without position")
			}
			if cfgErr.Pos.Line != test.line {
				t.Errorf(
					"got error at line %d, want %d",
					cfgErr.Pos.Line, test.line,
				)
			}
		})
	}
}

func TestEvaluateBuildPathError(t *testing.T) {
	opts := testOptions(t)
	blocker := filepath.Join(opts.WorkDir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	opts.BuildPath = filepath.Join("blocker", "out")

	_, errs := Evaluate("BUILD.boxer", "\nget_build_path()\n", opts)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if pos := errs[0].Pos; pos == nil || pos.Line != 2 {
		t.Errorf("got error at %v, want line 2", pos)
	}
	var buildErr *BuildError
	if !errors.As(errs[0].Err, &buildErr) {
		t.Fatalf("got error %v, want build error", errs[0].Err)
	}
	var pathErr *fs.PathError
	if !errors.As(errs[0].Err, &pathErr) {
		t.Errorf("got error %v, want path error cause", errs[0].Err)
	}
}

func TestTargetHandle(t *testing.T) {
	s := evalScript(t, `
a = register_target("a")
b = register_target("b", depends_on = ["a"])
alias = b
alias.add_dependency("c")
b.add_dependency("a")
c = register_target("c")

set_var("deps", ",".join(b.depends))
set_var("name", b.name)
set_var("a_default", str(a.is_default))
set_var("b_default", str(b.is_default))
set_var("type", type(a))
`)
	for k, want := range map[string]string{
		"deps":      "a,c",
		"name":      "b",
		"a_default": "True",
		"b_default": "False",
		"type":      "Target",
	} {
		if got, _ := s.ctx.getVar(k); got != want {
			t.Errorf("var %q got %q, want %q", k, got, want)
		}
	}
}

func TestRegisterAfterFreeze(t *testing.T) {
	s := evalScript(t, `
def late(ctx, deps):
    register_target("late")
    return None

register_target("a", late)
`)
	_, err := s.ResolveAndBuild(nil, nil)
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("got error %v, want build error", err)
	}
	var cfgErr *ConfigError
	if !errors.As(buildErr.Err, &cfgErr) {
		t.Errorf("got cause %v, want config error", buildErr.Err)
	}

	if err := s.RegisterTarget("b", nil); err == nil {
		t.Error("registered from Go after freeze")
	}
	if len(s.Targets()) != 1 {
		t.Errorf("got %d targets, want 1", len(s.Targets()))
	}
}

func TestSetBuildPath(t *testing.T) {
	opts := testOptions(t)
	s, errs := Evaluate("BUILD.boxer", `
set_build_path("out/pkg")
set_var("root", get_build_path())
`, opts)
	if errs != nil {
		t.Fatal(errs[0].Err)
	}
	want := filepath.Join(opts.WorkDir, "out", "pkg")
	if got, _ := s.ctx.getVar("root"); got != want {
		t.Errorf("got build path %q, want %q", got, want)
	}
}

func TestBuildContextInClosure(t *testing.T) {
	opts := testOptions(t)
	opts.Vars = map[string]string{"version": "1.4.2", "app": "demo"}
	opts.Triple = "x86_64-pc-windows-msvc"
	s, errs := Evaluate("BUILD.boxer", `
def build(ctx, deps):
    ctx.set_var("number", str(ctx.build_number))
    ctx.set_var("triple", ctx.platform_triple())
    ctx.set_var("version", ctx.version())
    return ctx.subst("${app}-${version}.msi")

register_target("msi", build)
`, opts)
	if errs != nil {
		t.Fatal(errs[0].Err)
	}

	report, err := s.ResolveAndBuild(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Target("msi").Artifact; got != "demo-1.4.2.msi" {
		t.Errorf("got artifact %q", got)
	}
	for k, want := range map[string]string{
		"number": "1",
		"triple": "x86_64-pc-windows-msvc",
	} {
		if got, _ := s.ctx.getVar(k); got != want {
			t.Errorf("var %q got %q, want %q", k, got, want)
		}
	}
}

func TestBuildFailFast(t *testing.T) {
	s := evalScript(t, `
def ok(ctx, deps):
    return "ok"

def bad(ctx, deps):
    fail("signtool failed")

register_target("a", ok)
register_target("b", bad, depends_on = ["a"])
register_target("c", ok, depends_on = ["b"])
register_target("d", ok, depends_on = ["c"])
`)
	report, err := s.ResolveAndBuild([]string{"d"}, nil)
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("got error %v, want build error", err)
	}
	if buildErr.Target != "b" || buildErr.Run {
		t.Errorf("got build error %+v", buildErr)
	}
	if !strings.Contains(err.Error(), "signtool failed") {
		t.Errorf("error %q does not contain the script message", err)
	}

	if report.State != StateAborted {
		t.Errorf("got state %s, want aborted", report.State)
	}
	var got []string
	for _, r := range report.Targets {
		got = append(got, r.Name+":"+string(r.Status))
	}
	want := []string{"a:succeeded", "b:failed"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunClosure(t *testing.T) {
	s := evalScript(t, `
def build(ctx, deps):
    return ctx.resolved_target("app")

def run(ctx, artifact):
    ctx.set_var("ran", artifact.output_path)

def build_lib(ctx, deps):
    return "lib"

def run_lib(ctx, artifact):
    fail("lib should not run")

lib = register_target("lib", build_lib)
lib.set_run(run_lib)
app = register_target("app", build, depends_on = ["lib"])
app.set_run(run)
`)
	report, err := s.ResolveAndBuild(
		[]string{"app"}, &BuildOptions{Run: true},
	)
	if err != nil {
		t.Fatal(err)
	}
	root, err := s.BuildPath()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "app")
	if got, _ := s.ctx.getVar("ran"); got != want {
		t.Errorf("run got output path %q, want %q", got, want)
	}
	if !report.Target("app").Ran {
		t.Error("app not marked as ran")
	}
	if report.Target("lib").Ran {
		t.Error("dependency lib ran")
	}
}

func TestRunFailureKeepsArtifact(t *testing.T) {
	s := evalScript(t, `
def build(ctx, deps):
    return "bundle"

def run(ctx, artifact):
    fail("crashed")

register_target("app", build).set_run(run)
`)
	report, err := s.ResolveAndBuild(nil, &BuildOptions{Run: true})
	var buildErr *BuildError
	if !errors.As(err, &buildErr) || !buildErr.Run {
		t.Fatalf("got error %v, want run error", err)
	}
	r := report.Target("app")
	if r.Status != StatusSucceeded || r.RunError == "" {
		t.Errorf("got result %+v", r)
	}

	again, err := s.ResolveAndBuild(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Target("app").Status; got != StatusReused {
		t.Errorf("got status %s, want reused", got)
	}
}

func TestNoBuilder(t *testing.T) {
	s := evalScript(t, `
def build(ctx, deps):
    if deps["group"] != None:
        fail("want None")
    return "done"

register_target("group")
register_target("app", build, depends_on = ["group"])
`)
	report, err := s.ResolveAndBuild([]string{"app"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := report.Target("group"); got.Status != StatusSucceeded {
		t.Errorf("group got status %s", got.Status)
	}
}

func TestArtifactsFrozen(t *testing.T) {
	s := evalScript(t, `
def build_list(ctx, deps):
    return ["a"]

def mutate(ctx, deps):
    deps["list"].append("b")
    return None

register_target("list", build_list)
register_target("mutate", mutate, depends_on = ["list"])
`)
	_, err := s.ResolveAndBuild([]string{"mutate"}, nil)
	if err == nil {
		t.Fatal("mutated a frozen artifact")
	}
	if got := s.artifacts["list"].(*starlark.List).Len(); got != 1 {
		t.Errorf("artifact list has %d items", got)
	}
}

func TestResolveUnknown(t *testing.T) {
	s := evalScript(t, `register_target("a")`)
	_, err := s.ResolveAndBuild([]string{"b"}, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Name != "b" {
		t.Errorf("got error %v, want config error for b", err)
	}

	empty := evalScript(t, `x = 1`)
	if _, err := empty.ResolveAndBuild(nil, nil); !errors.As(err, &cfgErr) {
		t.Errorf("empty graph got %v, want config error", err)
	}
}
