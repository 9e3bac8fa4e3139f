package main

import "github.com/jcorbin/lim/internal/atom"

// Kind discriminates the node variants of a LIM syntax tree. A single
// tagged Node struct stands in for the source's tagged union; unused
// fields for a given Kind are simply left zero.
type Kind int

// Command node kinds.
const (
	Skip Kind = iota
	Fail
	Abort
	Seq
	Alt
	Guard
	Do
	Til
	VarBlock
	Eval
	Assign
	Call

	// Expression node kinds.
	Binop
	Unop
	IntConst
	StrConst
	VarUse

	// Top-level declaration kinds.
	ProcDecl
	VarDecl
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "SKIP"
	case Fail:
		return "FAIL"
	case Abort:
		return "ABORT"
	case Seq:
		return "SEQ"
	case Alt:
		return "ALT"
	case Guard:
		return "GUARD"
	case Do:
		return "DO"
	case Til:
		return "TIL"
	case VarBlock:
		return "VAR"
	case Eval:
		return "EVAL"
	case Assign:
		return "ASSIGN"
	case Call:
		return "CALL"
	case Binop:
		return "BINOP"
	case Unop:
		return "UNOP"
	case IntConst:
		return "INTCONST"
	case StrConst:
		return "STRCONST"
	case VarUse:
		return "VARUSE"
	case ProcDecl:
		return "PROCDECL"
	case VarDecl:
		return "VARDECL"
	}
	return "?"
}

// Op enumerates BINOP/UNOP operators.
type Op int

// Operators. AND/OR short-circuit; the rest are strict.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNeg // unary -
	OpNot // unary !
)

// Purity/safety dimension bits, one per externally observable resource a
// command can touch: Input, Output, Globals, Locals.
const (
	DimI = 1 << iota
	DimO
	DimG
	DimL
)

// AllDims is the full I|O|G|L mask, used both as the "fully pure/safe/
// total" value and as the safety mask meaning "nothing needs saving".
const AllDims = DimI | DimO | DimG | DimL

// NoInputVar marks a Mark whose inputvar slot is unset (the source's
// IVAR_NONE).
const NoInputVar = -1

// Mark is the annotation a node's mark field carries: totality, purity,
// safety per dimension, stability of the fixed point, and the predictive
// first-character hints used by ALT/TIL dispatch.
type Mark struct {
	Total      bool
	Pure       int // bitmask over DimI|DimO|DimG|DimL
	Safe       int // bitmask over DimI|DimO|DimG|DimL
	Stable     bool
	InputVar   int   // local/global variable index, or NoInputVar
	InputMask  int32 // bit c&0x1f set means character c (or EOF==-1) is possible
	CheckInput bool
}

// AllMask is an InputMask value containing every character (all bits set).
const AllMask int32 = -1

// MaskHas reports whether character c (which may be ringio.EOF, i.e. -1) is
// a member of mask.
func MaskHas(mask int32, c int) bool {
	return mask&(1<<(uint(c)&0x1f)) != 0
}

// MaskAdd returns mask with c added.
func MaskAdd(mask int32, c int) int32 {
	return mask | (1 << (uint(c) & 0x1f))
}

// Var is a resolved variable reference: a name (nil for the anonymous
// result variable used by expression-form calls) together with its index.
// By convention index >= 0 names a slot in the current frame and index < 0
// names global slot (-1 - index); index is unresolved (zero value 0, which
// is also a legitimate frame slot) until annotation fills it in, so callers
// track resolution state themselves rather than relying on a sentinel.
type Var struct {
	Name  *atom.Atom
	Index int

	// link chains together every global Var reference, and every anonymous
	// result Var, seen across the whole annotation, so pass 3 can rewrite
	// all of their indices after partitioning; it is left set afterwards.
	link *Var
}

// Binding is a single `name := expr` entry in a VAR command or VARDECL.
type Binding struct {
	Lhs Var
	Rhs *Node
}

// Proc is a user procedure's declaration: its formal parameter lists, the
// frame size computed by the annotator, and its body.
type Proc struct {
	Name    *atom.Atom
	Outs    []Var
	Inouts  []Var
	Ins     []Var
	Frame   int
	Body    *Node
}

// BuiltinExec is the signature of a built-in procedure's executor.
type BuiltinExec func(n *Node, st *State) bool

// Builtin is a built-in procedure's fixed signature, mark, and executor, as
// installed into the annotator's builtin scope.
type Builtin struct {
	Name        *atom.Atom
	Outs        int
	Inouts      int
	Ins         int
	Mark        Mark
	Exec        BuiltinExec
}

// Node is a single syntax tree node: every command, expression, and
// top-level declaration variant in the language. See Kind for the
// discriminator and the comment on each field group for which Kinds use it.
type Node struct {
	Kind Kind
	Line int
	Mark Mark

	// SEQ, ALT, GUARD, BINOP
	Left  *Node
	Right *Node

	// DO, VAR (the command to run, after VAR's Bindings)
	Body *Node

	// EVAL, UNOP (arg)
	Expr *Node

	// VAR
	Bindings []Binding

	// ASSIGN
	Lhs *Var
	Rhs *Node

	// CALL
	CallName   *atom.Atom
	Outs       []Var
	Inouts     []Var
	Ins        []*Node
	Proc       *Proc        // resolved user procedure, or nil
	Exec       BuiltinExec  // resolved builtin executor, or nil
	ExprForm   bool         // true if this CALL appears in expression position

	// BINOP / UNOP
	Op Op

	// INTCONST
	IntVal int

	// STRCONST
	StrVal []byte

	// VARUSE
	VarRef *Var

	// PROCDECL, VARDECL (top-level declaration list, linked through Link)
	Link       *Node
	ProcData   *Proc
	Globals    []Binding
}

// NewNode allocates a Node of the given kind and line, with the mark
// field zeroed (annotation and marking fill it in later).
func NewNode(k Kind, line int) *Node {
	return &Node{Kind: k, Line: line}
}
