package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/lim/internal/atom"
	"github.com/jcorbin/lim/internal/scope"
)

func TestStack_BindLookupShadow(t *testing.T) {
	var tab atom.Table
	var s scope.Stack

	x := tab.Intern("x")
	s.Bind(scope.Entity{Kind: scope.Local, Name: x, Value: 0})

	s.Save()
	s.Bind(scope.Entity{Kind: scope.Local, Name: x, Value: 1})

	e, ok := s.Lookup(x)
	assert.True(t, ok)
	assert.Equal(t, 1, e.Value)

	s.Restore()

	e, ok = s.Lookup(x)
	assert.True(t, ok)
	assert.Equal(t, 0, e.Value)
}

func TestStack_LookupMiss(t *testing.T) {
	var tab atom.Table
	var s scope.Stack
	_, ok := s.Lookup(tab.Intern("nope"))
	assert.False(t, ok)
}

func TestStack_RestoreWithoutSavePanics(t *testing.T) {
	var s scope.Stack
	assert.Panics(t, func() { s.Restore() })
}

func TestStack_NestedSaveRestore(t *testing.T) {
	var tab atom.Table
	var s scope.Stack
	a, b := tab.Intern("a"), tab.Intern("b")

	s.Bind(scope.Entity{Kind: scope.Global, Name: a, Value: -1})
	s.Save()
	s.Bind(scope.Entity{Kind: scope.Local, Name: b, Value: 0})
	s.Save()
	s.Bind(scope.Entity{Kind: scope.Local, Name: b, Value: 1})

	s.Restore()
	e, ok := s.Lookup(b)
	assert.True(t, ok)
	assert.Equal(t, 0, e.Value)

	s.Restore()
	_, ok = s.Lookup(b)
	assert.False(t, ok)

	_, ok = s.Lookup(a)
	assert.True(t, ok)
}
