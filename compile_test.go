package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runProg compiles and runs src against stdin, returning the exit code and
// whatever the program wrote to stdout.
func runProg(t *testing.T, src, stdin string) (int, string) {
	t.Helper()
	var out strings.Builder
	cfg := NewConfig(
		WithSource(strings.NewReader(src), "test"),
		WithStdin(strings.NewReader(stdin)),
		WithStdout(&out),
	)
	result, err := Compile(cfg)
	require.NoError(t, err)
	code := Run(cfg, result)
	return code, out.String()
}

// runProgCapturingStderr is runProg plus everything Run wrote to stderr
// (the guard-failure/abort/division-by-zero messages, which Run writes
// directly to os.Stderr rather than through Config).
func runProgCapturingStderr(t *testing.T, src, stdin string) (code int, stdout, stderr string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = old }()

	var out strings.Builder
	cfg := NewConfig(
		WithSource(strings.NewReader(src), "test"),
		WithStdin(strings.NewReader(stdin)),
		WithStdout(&out),
	)
	result, cerr := Compile(cfg)
	require.NoError(t, cerr)
	code = Run(cfg, result)

	w.Close()
	os.Stderr = old
	captured, err := io.ReadAll(r)
	require.NoError(t, err)
	return code, out.String(), string(captured)
}

func TestScenarioEcho(t *testing.T) {
	src := `
proc Main()
	var c := 0 in do c := Rd() ; Wr(c) od end
`
	code, out := runProg(t, src, "abc")
	assert.Equal(t, 0, code)
	assert.Equal(t, "abc", out)
}

func TestScenarioAlternationPredictiveDispatch(t *testing.T) {
	src := `
proc Main()
	Rd("a") | Rd("b")
`
	code, out := runProg(t, src, "b")
	assert.Equal(t, 0, code)
	assert.Equal(t, "", out)
}

func TestScenarioBacktrackingRestore(t *testing.T) {
	src := `
proc Main()
	(Wr("hello") ; fail) | skip
`
	code, out := runProg(t, src, "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "", out)
}

func TestScenarioAbort(t *testing.T) {
	src := `
proc Main()
	Rd("a") ; Rd("b") ; Wr("w") ; Wr("w") ; abort
`
	code, _ := runProg(t, src, "ab")
	assert.Equal(t, 2, code)
}

func TestScenarioDivisionByZero(t *testing.T) {
	src := `
var z := 0;
proc Main()
	var x := 1 / z in skip end
`
	code, _ := runProg(t, src, "")
	assert.Equal(t, 2, code)
}

func TestScenarioCheckout(t *testing.T) {
	src := `
proc Main()
	Rd("ab") ; Rd("c")
`
	code, _ := runProg(t, src, "abc")
	assert.Equal(t, 0, code)

	code, _ = runProg(t, src, "ac")
	assert.Equal(t, 1, code)
}

func TestGuardFailureReportsCharsRead(t *testing.T) {
	src := `
proc Main()
	Rd("x")
`
	code, out, errOut := runProgCapturingStderr(t, src, "y")
	assert.Equal(t, 1, code)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "test: guard failure\n")
	assert.Contains(t, errOut, "number of chars read = 0.\n")
}

// TestGuardFailureChecksReadHighWaterMarkNotPosition covers the case where a
// backtrack restores the input position before Main finally fails: the
// "number of chars read" count must reflect the high-water mark reached
// during the run (spec.md's limrd_maxread), not the input's final resting
// position, which an ALT restore can (and here does) roll back to zero.
func TestGuardFailureChecksReadHighWaterMarkNotPosition(t *testing.T) {
	src := `
proc Main()
	(Rd() -> fail) | fail
`
	code, out, errOut := runProgCapturingStderr(t, src, "x")
	assert.Equal(t, 1, code)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "number of chars read = 1.\n")
}
