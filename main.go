/*
Package main implements lim, an interpreter for LIM: a language whose
commands don't return values, they simply succeed or fail, and whose
failure handling is total backtracking rather than exceptions — a failed
command undoes every change it (and anything it called) made to global
variables, locals, and the position read from or written to, as if it had
never run at all.

A command's combinators read like a regular expression's: `;` sequences,
`|` tries an alternative if the first fails, `->` guards a command behind
a boolean expression, `do ... od` repeats until failure, `til ... or ... od`
repeats a body until a condition first succeeds. The five built-in
procedures Rd, Wr, Err, At, and Eof are LIM's entire interface to the
outside world, reading and writing through ring buffers bounded enough to
seek backward over but not so large as to buffer an entire run's I/O.

Most of what a LIM program looks like it's doing — which branch of a `|`
will be attempted, whether a `do` loop's body needs its state saved before
each iteration — is decided once, ahead of time, by a whole-program
analysis (internal to this package, see annotate.go and mark.go) rather
than worked out fresh on every execution.
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jcorbin/lim/internal/logio"
	"github.com/jcorbin/lim/internal/panicerr"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lim", flag.ContinueOnError)
	debug := fs.Int("debug", 0,
		"debug bitmask: 1=allow Err's purity optimization, 2=dump tree before annotation, "+
			"4=dump tree after annotation, 8=dump tree after marking")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lim [-debug=<n>] <progfile>")
		return 2
	}
	progPath := fs.Arg(0)

	f, err := os.Open(progPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lim: %v\n", err)
		return 2
	}
	defer f.Close()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer log.Close()

	var code int
	recoverErr := panicerr.Recover("lim", func() error {
		code = runProgram(f, progPath, *debug, log.Leveledf("DEBUG"))
		return nil
	})
	if recoverErr != nil {
		fmt.Fprintf(os.Stderr, "lim: internal error: %v\n", recoverErr)
		if stack := panicerr.PanicStack(recoverErr); stack != "" {
			fmt.Fprintln(os.Stderr, stack)
		}
		return 2
	}
	return code
}

func runProgram(f *os.File, progPath string, debug int, logf func(string, ...interface{})) int {
	cfg := NewConfig(
		WithSource(f, progPath),
		WithStdin(os.Stdin),
		WithStdout(os.Stdout),
		WithDebug(debug),
		WithLogf(logf),
	)

	result, err := Compile(cfg)
	if err != nil {
		reportCompileError(progPath, err)
		return 2
	}

	return Run(cfg, result)
}

// reportCompileError prints one progname-prefixed line per accumulated
// compileError, matching the original front end's limerr: each error gets
// its own "<progname>: <msg> [near line <n>]" line, never a single bundled
// report.
func reportCompileError(progPath string, err error) {
	if el, ok := err.(*errorList); ok {
		for _, e := range el.errs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", progPath, e.Error())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", progPath, err)
}
