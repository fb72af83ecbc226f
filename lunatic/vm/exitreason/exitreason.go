// Package exitreason describes why a process of the in-process host stopped.
//
// A process that returns from its entry function exits [Normal]. Every other
// reason is abnormal and is propagated to linked processes as a link death.
package exitreason

import (
	"errors"
	"fmt"
)

const (
	normal   = "normal"
	killed   = "killed"
	linkDied = "link_died"
	trap     = "trap"
	noProc   = "noproc"
	shutdown = "vm_shutdown"
)

// Opaque exit reason. Use the functions in this package to create new instances
// and test them with the `Is*(error) bool` functions.
type S struct {
	short  string
	err    error
	detail error
	tag    int64
}

func (s *S) Error() string {
	switch s.short {
	case trap:
		return fmt.Sprintf("EXIT{trap: %v}", s.detail)
	case linkDied:
		return fmt.Sprintf("EXIT{link_died: tag %d}", s.tag)
	default:
		return fmt.Sprintf("EXIT{%s}", s.short)
	}
}

func (s *S) Unwrap() error {
	return s.err
}

// TrapDetail returns the panic that caused a [Trap], or nil.
func (s *S) TrapDetail() error {
	return s.detail
}

// LinkTag returns the tag of the link whose death caused a [LinkDied] exit.
func (s *S) LinkTag() int64 {
	return s.tag
}

// Abnormal reports whether linked processes should be told about this exit.
func (s *S) Abnormal() bool {
	return s.short != normal
}

var (
	trapErr     = &S{short: trap}
	linkDiedErr = &S{short: linkDied}
)

var (
	// The entry function returned.
	Normal = &S{short: normal}
	// The process was killed by another process.
	Killed = &S{short: killed}
	// The process id does not identify a live process.
	NoProc = &S{short: noProc}
	// The host was shut down while the process was still running.
	Shutdown = &S{short: shutdown}
)

// Trap is the reason of a process whose entry function panicked.
func Trap(reason error) *S {
	return &S{short: trap, err: trapErr, detail: reason}
}

// LinkDied is the reason of a process that died because a process linked with [tag] did.
func LinkDied(tag int64) *S {
	return &S{short: linkDied, err: linkDiedErr, tag: tag}
}

func IsNormal(e error) bool {
	return errors.Is(e, Normal)
}

func IsKilled(e error) bool {
	return errors.Is(e, Killed)
}

func IsTrap(e error) bool {
	return errors.Is(e, trapErr)
}

func IsLinkDied(e error) bool {
	return errors.Is(e, linkDiedErr)
}

// To returns the *S wrapped by [e], or nil.
func To(e error) *S {
	var s *S
	if errors.As(e, &s) {
		return s
	}
	return nil
}

// Wrap returns [e] if it is already an exit reason and a [Trap] otherwise.
func Wrap(e error) *S {
	if e == nil {
		return Normal
	}
	if s := To(e); s != nil {
		return s
	}
	return Trap(e)
}
