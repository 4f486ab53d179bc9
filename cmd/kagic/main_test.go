package main

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/you-not-fish/kagi/internal/codegen"
	"github.com/you-not-fish/kagi/internal/config"
	"github.com/you-not-fish/kagi/internal/layout"
)

const scoresConfig = `
[codegen]
module = "scores"

[[dict]]
name = "scores"
key = "str"
value = "i64"
ops = ["len", "insert", "get"]
`

func TestRunEmitLL(t *testing.T) {
	path := writeTempConfig(t, scoresConfig)
	out := filepath.Join(t.TempDir(), "scores.ll")
	setFlag(t, output, out)

	code, stdout, stderr := captureOutput(t, func() int {
		return runEmit(path)
	})
	if code != 0 {
		t.Fatalf("runEmit exit=%d\nstderr:\n%s", code, stderr)
	}
	if stdout != "" || stderr != "" {
		t.Fatalf("unexpected output:\nstdout:\n%s\nstderr:\n%s", stdout, stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	ll := string(data)
	for _, want := range []string{
		`target triple = "x86_64-unknown-linux-gnu"`,
		"@scores.len(",
		"@scores.insert(",
		"@scores.get(",
		"declare void @rt_dict_insert(",
		"generic_hash_0",
	} {
		if !strings.Contains(ll, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(ll, "@scores.union(") {
		t.Error("output defines an operation that was not configured")
	}
}

func TestRunEmitIR(t *testing.T) {
	path := writeTempConfig(t, scoresConfig)
	setFlag(t, emitIR, true)

	code, stdout, stderr := captureOutput(t, func() int {
		return runEmit(path)
	})
	if code != 0 {
		t.Fatalf("runEmit exit=%d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "scores.get") {
		t.Errorf("IR output missing scores.get:\n%s", stdout)
	}
	if strings.Contains(stdout, "target triple") {
		t.Error("IR output contains LLVM module header")
	}
}

func TestRunEmitDefaultConfig(t *testing.T) {
	code, stdout, stderr := captureOutput(t, func() int {
		return runEmit("")
	})
	if code != 0 {
		t.Fatalf("runEmit exit=%d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "declare") || strings.Contains(stdout, "define") {
		t.Errorf("default module should only declare the runtime:\n%s", stdout)
	}
}

func TestRunEmitErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") }, "cannot read"},
		{"invalid", func(t *testing.T) string {
			return writeTempConfig(t, "[[dict]]\nname = \"d\"\nkey = \"f64\"\nvalue = \"i64\"\n")
		}, "cannot be hashed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			code, _, stderr := captureOutput(t, func() int {
				return runEmit(path)
			})
			if code != 1 {
				t.Errorf("exit = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want substring %q", stderr, tt.want)
			}
		})
	}
}

func TestGenerateInternalError(t *testing.T) {
	cfg := config.Default()
	i64 := layout.MustParse("i64")
	_, err := generate(cfg, func(env *codegen.Env) {
		env.DefineEntry("d", codegen.OpLen, i64, i64)
		env.DefineEntry("d", codegen.OpLen, i64, i64)
	})
	ice, ok := err.(*internalError)
	if !ok {
		t.Fatalf("err = %v, want *internalError", err)
	}
	if !strings.Contains(ice.Error(), "internal compiler error") || !strings.Contains(ice.Error(), "already defined") {
		t.Errorf("err = %q", ice.Error())
	}
}

func TestRunCheck(t *testing.T) {
	path := writeTempConfig(t, `
[[dict]]
name = "ints"
key = "i64"
value = "i64"
ops = ["len"]

[[dict]]
name = "names"
key = "i64"
value = "str"

[[dict]]
name = "ids"
key = "str"
value = "i64"

[[dict]]
name = "words"
key = "str"
value = "str"

[[dict]]
name = "blobs"
key = "i64"
value = "list<u8>"
`)

	code, stdout, stderr := captureOutput(t, func() int {
		return runCheck(path, zaptest.NewLogger(t))
	})
	if code != 0 {
		t.Fatalf("runCheck exit=%d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	for _, want := range []string{
		"PASS ints\n",
		"PASS names\n",
		"PASS ids\n",
		"PASS words\n",
		"SKIP blobs: dict<i64, list<u8>>\n",
		"4 passed, 0 failed\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("check output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunCheckBadConfig(t *testing.T) {
	code, _, stderr := captureOutput(t, func() int {
		return runCheck(filepath.Join(t.TempDir(), "nope.toml"), zaptest.NewLogger(t))
	})
	if code != 1 || !strings.Contains(stderr, "cannot read") {
		t.Errorf("exit=%d stderr=%q", code, stderr)
	}
}

func TestElementFor(t *testing.T) {
	tests := []struct {
		layout string
		ok     bool
	}{
		{"i64", true},
		{"str", true},
		{"u64", false},
		{"{i64}", false},
		{"list<str>", false},
	}
	for _, tt := range tests {
		if _, ok := elementFor(layout.MustParse(tt.layout)); ok != tt.ok {
			t.Errorf("elementFor(%s) = %v, want %v", tt.layout, ok, tt.ok)
		}
	}
}

// TestClangCompiles hands generated IR to clang when it is installed.
func TestClangCompiles(t *testing.T) {
	if _, err := exec.LookPath("clang"); err != nil {
		t.Skip("clang not found, skipping")
	}

	dir := t.TempDir()
	path := writeTempConfig(t, `
[[dict]]
name = "scores"
key = "str"
value = "i64"

[[dict]]
name = "wide"
key = "u8"
value = "i128"
`)
	llFile := filepath.Join(dir, "dicts.ll")
	setFlag(t, output, llFile)
	if code, _, stderr := captureOutput(t, func() int { return runEmit(path) }); code != 0 {
		t.Fatalf("runEmit exit=%d\nstderr:\n%s", code, stderr)
	}

	cmd := exec.Command("clang", "-c", "-Wno-override-module", llFile, "-o", filepath.Join(dir, "dicts.o"))
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("clang failed:\n%s\n%v", out, err)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kagi.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// setFlag sets a flag variable for the duration of the test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outc, errc := drain(rOut), drain(rErr)

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdout, stderr = <-outc, <-errc
	_ = rOut.Close()
	_ = rErr.Close()
	return code, stdout, stderr
}

// drain reads r to EOF in the background so large outputs cannot fill
// the pipe.
func drain(r io.Reader) <-chan string {
	c := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		c <- string(b)
	}()
	return c
}
