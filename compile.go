package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jcorbin/lim/internal/atom"
)

// compileResult is everything Run needs after a successful Compile: the
// full declaration list (kept for its VARDECL initializers) and what
// Annotate resolved about Main.
type compileResult struct {
	decls     *Node
	main      *Node
	nglobals  int
	nmutants  int
	mainFrame int
}

// Compile lexes, parses, annotates, and marks c.Source, dumping the tree at
// each stage c.Debug's bits request. A non-nil error is a compileError-like
// failure report, never a panic.
func Compile(c *Config) (*compileResult, error) {
	core := &Core{}
	core.logging.logfn = c.Logf
	core.Input.Queue = append(core.Input.Queue, namedReader{c.Source, c.ProgName})

	lx := newLexer(core)
	atoms := &atom.Table{}
	p := NewParser(lx, atoms)
	decls, err := p.Parse()
	if err != nil {
		return nil, err
	}

	if c.Debug&0x2 != 0 {
		core.logf("DUMP", "tree before annotation:")
		dumpTree(logWriter{core}, decls, false)
	}

	an := NewAnnotator(atoms, c.Debug)
	main, nglobals, nmutants, mainFrame, err := an.Annotate(decls)
	if err != nil {
		return nil, err
	}

	if c.Debug&0x4 != 0 {
		core.logf("DUMP", "tree after annotation:")
		dumpTree(logWriter{core}, decls, false)
	}

	mk := NewMarker(an.builtins, an.rdName)
	mk.Mark(decls)

	if c.Debug&0x8 != 0 {
		core.logf("DUMP", "tree after marking:")
		dumpTree(logWriter{core}, decls, true)
	}

	return &compileResult{decls: decls, main: main, nglobals: nglobals, nmutants: nmutants, mainFrame: mainFrame}, nil
}

// Run executes a compiled program's Main against c.Stdin/c.Stdout, returning
// the process exit code the CLI should use: 0 on success, 1 on an ordinary
// guard/Main failure, 2 on ABORT or another fatal runtime condition.
func Run(c *Config, r *compileResult) (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			if he, ok := rec.(haltError); ok {
				code = he.ExitCode
				return
			}
			panic(rec)
		}
	}()

	st := NewState(r.nglobals, r.nmutants, c.Stdin, c.Stdout)
	st.ProgName = c.ProgName

	if !initialize(r.decls, st) {
		fmt.Fprintf(os.Stderr, "%s: initialization failed\n", c.ProgName)
		return 1
	}

	st.NewFrame(0, nil, nil, r.mainFrame)
	ok := runCmd(r.main, st)
	st.OldFrame(nil, nil, ok)

	if !ok {
		fmt.Fprintf(os.Stderr, "%s: guard failure\nnumber of chars read = %d.\n", c.ProgName, st.Reader().MaxRead())
		st.Writer().Seek(0) // best-effort: only the still-unflushed tail actually truncates
	}
	if cerr := st.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", c.ProgName, cerr)
		return 2
	}
	if !ok {
		return 1
	}
	return 0
}

// namedReader pairs a reader with the name fileinput.Input reports it under
// in compile error source locations.
type namedReader struct {
	r    io.Reader
	name string
}

func (nr namedReader) Read(p []byte) (int, error) { return nr.r.Read(p) }
func (nr namedReader) Name() string               { return nr.name }

// logWriter adapts Core's logf into an io.Writer, one line per Write call,
// for dumpTree's fmt.Fprintf-based output.
type logWriter struct{ core *Core }

func (lw logWriter) Write(p []byte) (int, error) {
	lw.core.logf("DUMP", "%s", trimNL(p))
	return len(p), nil
}

func trimNL(p []byte) []byte {
	if n := len(p); n > 0 && p[n-1] == '\n' {
		return p[:n-1]
	}
	return p
}
