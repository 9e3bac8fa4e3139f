// Package atom provides process-wide string interning with identity
// equality, grounded on the classic chained hash table used by the original
// front end's atom table.
package atom

import "sync"

// Atom is the unique representative of an interned name. Two atoms are
// equal if and only if they came from the same name; callers compare atoms
// with ==, never by dereferencing Name.
type Atom struct {
	name string
}

// Name returns the interned string.
func (a *Atom) Name() string { return a.name }

func (a *Atom) String() string { return a.name }

// Table interns names into unique *Atom values. The zero Table is ready to
// use. A Table is safe for concurrent use, though LIM programs themselves
// only ever intern from a single goroutine during parsing and annotation.
type Table struct {
	mu      sync.Mutex
	atoms   map[string]*Atom
}

// Intern returns the unique atom for name, allocating one the first time
// name is seen. Atoms are never freed: the table, and every atom it hands
// out, lives for the remainder of the process.
func (t *Table) Intern(name string) *Atom {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a, ok := t.atoms[name]; ok {
		return a
	}
	a := &Atom{name: name}
	if t.atoms == nil {
		t.atoms = make(map[string]*Atom)
	}
	t.atoms[name] = a
	return a
}

// Len reports how many distinct names have been interned.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.atoms)
}
