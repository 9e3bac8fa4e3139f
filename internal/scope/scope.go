// Package scope implements the annotator's lexical scope stack: a single
// array-backed stack of entities with well-bracketed mark/restore, grounded
// on the original front end's scope.c.
package scope

import "github.com/jcorbin/lim/internal/atom"

// Kind discriminates the entries a Stack can hold.
type Kind int

// The entity kinds a scope binding may carry.
const (
	Mark Kind = iota
	Local
	Global
	Procedure
	Builtin
)

// Entity is one binding on the stack: a named local/global/procedure/
// builtin, or an unnamed Mark sentinel pushed by Save.
type Entity struct {
	Kind Kind
	Name *atom.Atom
	// Value carries the kind-specific payload: a local/global index (int),
	// a *Proc, or a *Builtin. Callers type-assert on Kind.
	Value interface{}
}

// Stack is a scope stack of Entity bindings. The zero Stack is ready to use.
type Stack struct {
	entries []Entity
}

// Bind pushes a new binding, shadowing any prior binding of the same name.
func (s *Stack) Bind(e Entity) {
	s.entries = append(s.entries, e)
}

// Lookup scans top-down for the innermost binding of name, returning it and
// true, or the zero Entity and false if name is unbound.
func (s *Stack) Lookup(name *atom.Atom) (Entity, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Kind != Mark && s.entries[i].Name == name {
			return s.entries[i], true
		}
	}
	return Entity{}, false
}

// Save pushes a Mark sentinel, recording a restore point.
func (s *Stack) Save() {
	s.entries = append(s.entries, Entity{Kind: Mark})
}

// Restore pops entries down to and including the last Mark sentinel. It
// panics if there is no matching Mark — a well-bracketed caller can never
// trigger this; an unbalanced one has a hard bug.
func (s *Stack) Restore() {
	for {
		n := len(s.entries) - 1
		if n < 0 {
			panic(errUnbalancedRestore)
		}
		e := s.entries[n]
		s.entries = s.entries[:n]
		if e.Kind == Mark {
			return
		}
	}
}

// Len reports the current number of entries, including Mark sentinels.
func (s *Stack) Len() int { return len(s.entries) }

type unbalancedRestoreError struct{}

func (unbalancedRestoreError) Error() string { return "scope: restore without matching save" }

var errUnbalancedRestore error = unbalancedRestoreError{}
