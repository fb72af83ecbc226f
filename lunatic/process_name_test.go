//go:build !integration

package lunatic_test

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
)

type singleton struct{}

func TestDefaultProcessName_Format(t *testing.T) {
	name := lunatic.DefaultProcessName[singleton]()

	assert.Assert(t, is.Regexp(`^.+@.+::github\.com/lunatic-solutions/lunatic-go/lunatic_test::singleton$`, name.ProcessName()))
	assert.Equal(t, lunatic.DefaultProcessName[*singleton](), name)
	assert.Assert(t, lunatic.DefaultProcessName[lunatic.Unit]() != name)
}

func TestRegisterName_LookupByDefaultName(t *testing.T) {
	var self, got uint64
	var found, byLiteral bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p := lunatic.This[int](inst)
		self = p.ID()
		p.RegisterName(lunatic.DefaultProcessName[singleton]())
		p.RegisterName(lunatic.Name("literal"))

		var q lunatic.Process[int]
		q, found = lunatic.Lookup[int](inst, lunatic.DefaultProcessName[singleton]().ProcessName())
		got = q.ID()
		_, byLiteral = lunatic.Lookup[int](inst, "literal")
	})

	assert.Assert(t, found)
	assert.Equal(t, got, self)
	assert.Assert(t, byLiteral)
}
