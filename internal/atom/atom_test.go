package atom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/lim/internal/atom"
)

func TestTable_Intern(t *testing.T) {
	var tab atom.Table

	a := tab.Intern("foo")
	b := tab.Intern("foo")
	c := tab.Intern("bar")

	assert.True(t, a == b, "same name must intern to the same atom")
	assert.False(t, a == c, "different names must intern to different atoms")
	assert.Equal(t, "foo", a.Name())
	assert.Equal(t, 2, tab.Len())
}

func TestTable_zeroValue(t *testing.T) {
	var tab atom.Table
	a := tab.Intern("x")
	assert.Equal(t, "x", a.Name())
}
