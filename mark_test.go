package main

import (
	"strings"
	"testing"

	"github.com/jcorbin/lim/internal/atom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileForMark(t *testing.T, src string) (*Annotator, *Marker, *Node) {
	t.Helper()
	core := &Core{}
	core.Input.Queue = append(core.Input.Queue, namedReader{strings.NewReader(src), "test"})
	lx := newLexer(core)
	atoms := &atom.Table{}
	p := NewParser(lx, atoms)
	decls, err := p.Parse()
	require.NoError(t, err)

	an := NewAnnotator(atoms, 0)
	_, _, _, _, err = an.Annotate(decls)
	require.NoError(t, err)

	mk := NewMarker(an.builtins, an.rdName)
	return an, mk, decls
}

// TestMarkFixedPointIdempotent covers spec invariant 9: running the marker
// twice produces identical results.
func TestMarkFixedPointIdempotent(t *testing.T) {
	src := `
proc Main()
	var c := 0 in do c := Rd() ; Wr(c) od end
`
	_, mk, decls := compileForMark(t, src)
	mk.Mark(decls)
	first := decls.ProcData.Body.Mark

	mk2 := NewMarker(mk.builtins, mk.rdName)
	mk2.Mark(decls)
	second := decls.ProcData.Body.Mark

	assert.Equal(t, first, second)
}

func TestMarkAltOfLiteralReadsHasNoInputVar(t *testing.T) {
	src := `
proc Main()
	Rd("a") | Rd("b")
`
	_, mk, decls := compileForMark(t, src)
	mk.Mark(decls)
	body := decls.ProcData.Body
	assert.Equal(t, Alt, body.Kind)
	// Literal-string arguments narrow each branch's inputmask but never
	// set inputvar (that's reserved for a bound variable argument), so
	// both sides agree on NoInputVar and ALT inherits it.
	assert.Equal(t, NoInputVar, body.Mark.InputVar)
	assert.True(t, body.Mark.CheckInput)
}

func TestMarkDoOnFailIsTotal(t *testing.T) {
	src := `
proc Main()
	do fail od
`
	_, mk, decls := compileForMark(t, src)
	mk.Mark(decls)
	body := decls.ProcData.Body
	assert.Equal(t, Do, body.Kind)
	assert.True(t, body.Mark.Total)
	assert.Equal(t, AllDims, body.Mark.Safe)
}
