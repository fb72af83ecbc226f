//go:build !integration

package lunatic

import (
	"testing"

	"github.com/budougumi0617/cmpmock"
	"go.uber.org/mock/gomock"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// mockedABI routes the mocked namespaces to their mocks. Calls to any other
// namespace hit the nil embedded ABI and panic.
type mockedABI struct {
	host.ABI
	errors   *host.MockErrors
	timers   *host.MockTimers
	registry *host.MockRegistry
}

func newMockedABI(t *testing.T) *mockedABI {
	ctrl := gomock.NewController(t)
	return &mockedABI{
		errors:   host.NewMockErrors(ctrl),
		timers:   host.NewMockTimers(ctrl),
		registry: host.NewMockRegistry(ctrl),
	}
}

func (m *mockedABI) ErrorStringSize(id uint64) uint32 { return m.errors.ErrorStringSize(id) }
func (m *mockedABI) ErrorToString(id uint64, buf []byte) { m.errors.ErrorToString(id, buf) }
func (m *mockedABI) ErrorDrop(id uint64) { m.errors.ErrorDrop(id) }
func (m *mockedABI) TimerCancel(id uint64) bool { return m.timers.TimerCancel(id) }
func (m *mockedABI) TimerSendAfter(pid, ms uint64) uint64 { return m.timers.TimerSendAfter(pid, ms) }
func (m *mockedABI) RegistryPut(name string, node, id uint64) { m.registry.RegistryPut(name, node, id) }

func TestTimerRef_CancelAsksHostOnce(t *testing.T) {
	abi := newMockedABI(t)
	abi.timers.EXPECT().TimerCancel(uint64(5)).Return(true)
	abi.timers.EXPECT().TimerCancel(uint64(6)).Return(false)
	inst := NewInstance(abi)

	assert.Assert(t, TimerRef{inst: inst, id: 5}.Cancel())
	assert.Assert(t, !TimerRef{inst: inst, id: 6}.Cancel())
}

func TestLunaticError_FetchesMessageOnceAndDropsOnce(t *testing.T) {
	abi := newMockedABI(t)
	abi.errors.EXPECT().ErrorStringSize(uint64(7)).Return(uint32(4)).Times(1)
	abi.errors.EXPECT().ErrorToString(uint64(7), cmpmock.DiffEq(make([]byte, 4))).
		Do(func(_ uint64, buf []byte) { copy(buf, "nope") }).Times(1)
	abi.errors.EXPECT().ErrorDrop(uint64(7)).Times(1)
	err := newLunaticError(NewInstance(abi), 7)

	assert.Equal(t, err.Error(), "nope")
	assert.Equal(t, err.Error(), "nope")
	err.Drop()
	err.Drop()
	assert.Equal(t, err.Error(), "nope")
}

func TestLunaticError_DroppedBeforeFetch(t *testing.T) {
	abi := newMockedABI(t)
	abi.errors.EXPECT().ErrorDrop(uint64(3))
	err := newLunaticError(NewInstance(abi), 3)

	err.Drop()

	assert.Equal(t, err.Error(), "lunatic error 3")
}

func TestProcess_RegisterUsesTypedKey(t *testing.T) {
	abi := newMockedABI(t)
	abi.registry.EXPECT().RegistryPut("int/Bincode/Process/counter", uint64(1), uint64(2))

	ProcessOnNode[int](NewInstance(abi), 1, 2).Register("counter")
}

func TestInstance_AbandonedTagStaysAbandoned(t *testing.T) {
	inst := NewInstance(nil)
	tag := inst.NewTag()
	other := inst.NewTag()

	inst.abandon(tag)

	for range 3 {
		assert.Assert(t, inst.isAbandoned(tag))
	}
	assert.Assert(t, !inst.isAbandoned(other))
}

func TestInstance_AbandonedTagsAreBounded(t *testing.T) {
	inst := NewInstance(nil)
	first := inst.NewTag()
	inst.abandon(first)

	for range maxAbandoned {
		inst.abandon(inst.NewTag())
	}

	assert.Equal(t, inst.abandoned.Len(), maxAbandoned)
	assert.Assert(t, !inst.isAbandoned(first))
}

func TestInstance_TagFromU6PanicsWhenCounterReachesPayload(t *testing.T) {
	inst := NewInstance(nil)
	inst.tags.Store(u6Mask - 1)

	tag := inst.TagFromU6(5)
	base, d := tag.ExtractU6()
	assert.Equal(t, base, Tag(u6Mask))
	assert.Equal(t, d, uint8(5))

	assert.Assert(t, is.Panics(func() { inst.TagFromU6(5) }))
}
