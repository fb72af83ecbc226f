//go:build !integration

package lunatic_test

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
)

func TestNewTag_StartsAfterReservedRange(t *testing.T) {
	inst := lunatic.NewInstance(nil)

	assert.Equal(t, inst.NewTag(), lunatic.Tag(129))
	assert.Equal(t, inst.NewTag(), lunatic.Tag(130))
}

func TestSpecialTag_Range(t *testing.T) {
	for _, tc := range []struct {
		id int64
		ok bool
	}{
		{63, false},
		{64, true},
		{128, true},
		{129, false},
	} {
		tag, ok := lunatic.SpecialTag(tc.id)
		assert.Equal(t, ok, tc.ok, "id %d", tc.id)
		if ok {
			assert.Equal(t, tag, lunatic.Tag(tc.id))
		}
	}
}

func TestTagFromU6_RoundTrips(t *testing.T) {
	inst := lunatic.NewInstance(nil)

	tag := inst.TagFromU6(32)
	base, d := tag.ExtractU6()

	assert.Equal(t, d, uint8(32))
	assert.Equal(t, base, lunatic.Tag(129))
}

func TestTagFromU6_PanicsOnOverflow(t *testing.T) {
	inst := lunatic.NewInstance(nil)

	assert.Assert(t, is.Panics(func() { inst.TagFromU6(64) }))
}
