//go:build !integration

package lunatic_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
)

func TestCatchPanic(t *testing.T) {
	var got int
	var okErr, panicErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		got, okErr = lunatic.CatchPanic(inst, func() int { return 42 })
		_, panicErr = lunatic.CatchPanic(inst, func() int { panic("inside") })
	})

	assert.NilError(t, okErr)
	assert.Equal(t, got, 42)
	assert.ErrorIs(t, panicErr, lunatic.ErrPanicked)
}
