package lunatic

// TimerRef is a pending delayed send.
type TimerRef struct {
	inst *Instance
	id   uint64
}

func (t TimerRef) ID() uint64 {
	return t.id
}

// Cancel stops the timer. It returns true if the message had not been sent yet.
func (t TimerRef) Cancel() bool {
	return t.inst.abi.TimerCancel(t.id)
}
