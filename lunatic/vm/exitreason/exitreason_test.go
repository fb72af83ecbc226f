//go:build !integration

package exitreason

import (
	"errors"
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
)

func TestIsNormal_Wrapped(t *testing.T) {
	e := fmt.Errorf("process exited: %w", Normal)

	assert.Assert(t, IsNormal(e))
	assert.Assert(t, !To(e).Abnormal())
}

func TestTrap_KeepsDetail(t *testing.T) {
	cause := errors.New("index out of range")
	e := Trap(cause)

	assert.Assert(t, IsTrap(e))
	assert.Assert(t, e.Abnormal())
	assert.Equal(t, e.TrapDetail(), cause)
	assert.Equal(t, e.short, trap)
}

func TestLinkDied_CarriesTag(t *testing.T) {
	e := LinkDied(42)

	assert.Assert(t, IsLinkDied(e))
	assert.Assert(t, !IsTrap(e))
	assert.Equal(t, e.LinkTag(), int64(42))
	assert.Equal(t, e.Error(), "EXIT{link_died: tag 42}")
}

func TestTo_RejectsPlainErrors(t *testing.T) {
	assert.Assert(t, To(errors.New("boom")) == nil)
	assert.Assert(t, To(fmt.Errorf("wrapped: %w", Killed)) == Killed)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, Wrap(nil), Normal)
	assert.Equal(t, Wrap(Killed), Killed)
	assert.Assert(t, IsTrap(Wrap(errors.New("boom"))))
}
