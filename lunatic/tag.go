package lunatic

import "fmt"

// Tag identifies a message so a receiver can select on it. 0..63 are reserved
// by the SDK, 64..128 can be claimed with [SpecialTag] and everything above is
// handed out by [Instance.NewTag].
type Tag int64

const (
	// TagNone is the tag of plain sends.
	TagNone Tag = 1
	// captureTag carries the capture of a spawned process.
	captureTag Tag = 2
)

const (
	u6Shift = 56
	u6Mask  = 1<<u6Shift - 1
)

// NewTag returns a tag that is unique within this instance.
func (inst *Instance) NewTag() Tag {
	return Tag(inst.tags.Inc())
}

// SpecialTag returns the tag [id] if it lies in the special range 64..=128.
func SpecialTag(id int64) (Tag, bool) {
	if id < 64 || id > 128 {
		return 0, false
	}
	return Tag(id), true
}

// TagFromU6 returns a new tag carrying [d] in its top bits. It panics if [d]
// does not fit in 6 bits, or once the tag counter has grown into those bits.
func (inst *Instance) TagFromU6(d uint8) Tag {
	if d >= 64 {
		panic(fmt.Sprintf("lunatic: %d does not fit in a u6 tag payload", d))
	}
	base := inst.NewTag()
	if base > u6Mask {
		panic(fmt.Sprintf("lunatic: tag %d overflows into the u6 tag payload", base))
	}
	return Tag(int64(d)<<u6Shift | int64(base))
}

// ExtractU6 splits a tag made by [Instance.TagFromU6] into the plain tag and its payload.
func (t Tag) ExtractU6() (Tag, uint8) {
	return t & u6Mask, uint8(uint64(t) >> u6Shift)
}
