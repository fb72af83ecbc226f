package lunatic

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout          = errors.New("lunatic: timed out")
	ErrPanicked         = errors.New("lunatic: function panicked")
	ErrPermissionDenied = errors.New("lunatic: permission denied")
	ErrSpawnFailed      = errors.New("lunatic: spawn failed")
	ErrRegistryLocked   = errors.New("lunatic: registry name is locked")
	ErrLinkDied         = errors.New("lunatic: linked process died")
)

// LunaticError is an error that lives in the host error table. Its message is
// fetched on first use; [LunaticError.Drop] frees the host entry.
type LunaticError struct {
	inst    *Instance
	id      uint64
	msg     string
	fetched bool
	dropped bool
}

func newLunaticError(inst *Instance, id uint64) *LunaticError {
	return &LunaticError{inst: inst, id: id}
}

// HostError wraps entry [id] of the host error table. Packages that call the
// ABI directly use it to report failed calls.
func HostError(inst *Instance, id uint64) *LunaticError {
	return newLunaticError(inst, id)
}

// ID returns the host error id.
func (e *LunaticError) ID() uint64 {
	return e.id
}

func (e *LunaticError) Error() string {
	if !e.fetched {
		if e.dropped {
			return fmt.Sprintf("lunatic error %d", e.id)
		}
		buf := make([]byte, e.inst.abi.ErrorStringSize(e.id))
		e.inst.abi.ErrorToString(e.id, buf)
		e.msg = string(buf)
		e.fetched = true
	}
	return e.msg
}

// Drop releases the host entry. The message stays readable if it was fetched before.
func (e *LunaticError) Drop() {
	if e.dropped {
		return
	}
	e.dropped = true
	e.inst.abi.ErrorDrop(e.id)
}

// SpawnError is returned when the host refuses to start a process.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSpawnFailed, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawnFailed, e.Err}
}

// LinkDiedError reports the death of the process linked with Tag.
type LinkDiedError struct {
	Tag Tag
}

func (e *LinkDiedError) Error() string {
	return fmt.Sprintf("%v: tag %d", ErrLinkDied, e.Tag)
}

func (e *LinkDiedError) Unwrap() error {
	return ErrLinkDied
}
