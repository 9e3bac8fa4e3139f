package main

import (
	"fmt"
	"os"

	"github.com/jcorbin/lim/internal/atom"
	"github.com/jcorbin/lim/internal/ringio"
)

// builtinSig is a verbatim transcription of the original front end's
// built-in table, used to build both the annotator's builtin scope
// (outs/inouts/ins counts plus the fixed Mark every call to the builtin
// starts from) and the executors CALL dispatches to at runtime. Rd's
// zero-argument form is a special case handled by the annotator: it shares
// Rd's table entry but substitutes execRd for execRdx and 1/0/0 for the
// entry's own 0/0/1 signature.
type builtinSig struct {
	Name   string
	Outs   int
	Inouts int
	Ins    int
	Mark   Mark
	Exec   BuiltinExec
}

// builtinTable returns the fixed list of built-in procedures, with Err's
// purity depending on debug bit 0 exactly as the annotator's table does.
func builtinTable(debug int) []builtinSig {
	errPure := DimO | DimG | DimL // not DimI, so Err(...) -> FAIL isn't optimized away
	if debug&0x1 != 0 {
		errPure = AllDims
	}
	eofMask := MaskAdd(0, -1) // EOF only
	return []builtinSig{
		{
			Name: "Rd", Outs: 0, Inouts: 0, Ins: 1,
			Mark: Mark{
				Total: false, Pure: DimO | DimG | DimL, Safe: AllDims, Stable: true,
				InputVar: 0, InputMask: AllMask, CheckInput: true,
			},
			Exec: execRdx,
		},
		{
			Name: "Wr", Outs: 0, Inouts: 0, Ins: 1,
			Mark: Mark{
				Total: true, Pure: DimI | DimG | DimL, Safe: AllDims, Stable: true,
				InputVar: NoInputVar, InputMask: AllMask, CheckInput: false,
			},
			Exec: execWr,
		},
		{
			Name: "Err", Outs: 0, Inouts: 0, Ins: 1,
			Mark: Mark{
				Total: true, Pure: errPure, Safe: AllDims, Stable: true,
				InputVar: NoInputVar, InputMask: AllMask, CheckInput: false,
			},
			Exec: execErr,
		},
		{
			Name: "At", Outs: 0, Inouts: 0, Ins: 1,
			Mark: Mark{
				Total: false, Pure: AllDims, Safe: AllDims, Stable: true,
				InputVar: 0, InputMask: AllMask, CheckInput: true,
			},
			Exec: execAt,
		},
		{
			Name: "Eof", Outs: 0, Inouts: 0, Ins: 0,
			Mark: Mark{
				Total: false, Pure: AllDims, Safe: AllDims, Stable: true,
				InputVar: NoInputVar, InputMask: eofMask, CheckInput: true,
			},
			Exec: execEof,
		},
	}
}

// newBuiltinScope interns the builtin table's names against tab and
// returns them as Builtin records, keyed by name for the annotator's
// builtin lookup scope.
func newBuiltinScope(tab *atom.Table, debug int) map[*atom.Atom]*Builtin {
	m := make(map[*atom.Atom]*Builtin)
	for _, b := range builtinTable(debug) {
		name := tab.Intern(b.Name)
		m[name] = &Builtin{
			Name: name, Outs: b.Outs, Inouts: b.Inouts, Ins: b.Ins,
			Mark: b.Mark, Exec: b.Exec,
		}
	}
	return m
}

// argByte evaluates a one-in builtin's argument down to the single byte it
// denotes: the first byte of a string constant, or the low byte of an
// evaluated integer expression. ok is false if the argument is an empty
// string constant or its evaluation failed.
func argByte(n *Node, st *State) (c byte, ok bool) {
	if n.Kind == StrConst {
		if len(n.StrVal) == 0 {
			return 0, false
		}
		return n.StrVal[0], true
	}
	v, succeeded := evalExpr(n, st)
	if !succeeded {
		return 0, false
	}
	return byte(v), true
}

// execRd is Rd()'s zero-argument executor: read one character, failing on
// EOF, else bind it to the call's single out.
func execRd(n *Node, st *State) bool {
	c := st.Reader().GetChar()
	if c == ringio.EOF {
		return false
	}
	st.Assign(n.Outs[0], c)
	return true
}

// execRdx is Rd(x)'s one-argument executor: consume x (a string constant
// consumed byte-for-byte, or an evaluated expression's low byte) from
// input, succeeding iff every byte matched.
func execRdx(n *Node, st *State) bool {
	arg := n.Ins[0]
	if arg.Kind == StrConst {
		return st.Reader().Consume(arg.StrVal)
	}
	v, ok := evalExpr(arg, st)
	if !ok {
		return false
	}
	return st.Reader().Consume([]byte{byte(v)})
}

// execAt is At(x): like execRdx but non-consuming.
func execAt(n *Node, st *State) bool {
	arg := n.Ins[0]
	if arg.Kind == StrConst {
		return st.Reader().At(arg.StrVal)
	}
	v, ok := evalExpr(arg, st)
	if !ok {
		return false
	}
	return st.Reader().At([]byte{byte(v)})
}

// execWr is Wr(x): write x to output, always succeeding once x evaluates.
func execWr(n *Node, st *State) bool {
	arg := n.Ins[0]
	if arg.Kind == StrConst {
		for _, b := range arg.StrVal {
			st.Writer().Put(b)
		}
		return true
	}
	v, ok := evalExpr(arg, st)
	if !ok {
		return false
	}
	st.Writer().Put(byte(v))
	return true
}

// execErr is Err(x): write x to stderr and flush, always succeeding once x
// evaluates. Used as a debugging idiom: `Err("msg") -> FAIL`.
func execErr(n *Node, st *State) bool {
	arg := n.Ins[0]
	if arg.Kind == StrConst {
		os.Stderr.Write(arg.StrVal)
	} else {
		v, ok := evalExpr(arg, st)
		if !ok {
			return false
		}
		fmt.Fprintf(os.Stderr, "%c", byte(v))
	}
	return true
}

// execEof is Eof(): succeed iff input is at EOF.
func execEof(n *Node, st *State) bool {
	return st.Reader().Eof()
}
