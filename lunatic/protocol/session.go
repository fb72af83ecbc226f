package protocol

import (
	"fmt"
	"reflect"
	"strings"
)

type stepKind uint8

const (
	stepOut stepKind = iota
	stepIn
	stepSelect
	stepBranch
	stepLoop
	stepContinue
	stepDone
)

// Session is one step of a session script and, through its successors, the
// rest of the conversation. Scripts are built from [Out], [In], [Select],
// [Branch], [Loop], [Continue] and [Done], written from the point of view of
// one side; the other side follows the [Session.Dual].
type Session struct {
	kind stepKind
	typ  reflect.Type
	// next is the step after a send or receive, the left branch of a choice
	// and the body of a loop.
	next *Session
	// right branch of a choice
	alt *Session
}

// Out sends an A, then continues with [next].
func Out[A any](next *Session) *Session {
	return &Session{kind: stepOut, typ: reflect.TypeFor[A](), next: next}
}

// In receives an A, then continues with [next].
func In[A any](next *Session) *Session {
	return &Session{kind: stepIn, typ: reflect.TypeFor[A](), next: next}
}

// Select is an active choice between [left] and [right].
func Select(left, right *Session) *Session {
	return &Session{kind: stepSelect, next: left, alt: right}
}

// Branch lets the other side choose between [left] and [right].
func Branch(left, right *Session) *Session {
	return &Session{kind: stepBranch, next: left, alt: right}
}

// Loop marks [body] as repeatable. Inside it, [Continue] goes back to the loop.
func Loop(body *Session) *Session {
	return &Session{kind: stepLoop, next: body}
}

func Continue() *Session {
	return &Session{kind: stepContinue}
}

// Done ends the session.
func Done() *Session {
	return &Session{kind: stepDone}
}

// Dual is the script of the other side: every send becomes a receive and
// every active choice a passive one.
func (s *Session) Dual() *Session {
	if s == nil {
		return nil
	}
	d := &Session{typ: s.typ, next: s.next.Dual(), alt: s.alt.Dual()}
	switch s.kind {
	case stepOut:
		d.kind = stepIn
	case stepIn:
		d.kind = stepOut
	case stepSelect:
		d.kind = stepBranch
	case stepBranch:
		d.kind = stepSelect
	default:
		d.kind = s.kind
	}
	return d
}

func (s *Session) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Session) write(b *strings.Builder) {
	switch s.kind {
	case stepOut, stepIn:
		name := "Out"
		if s.kind == stepIn {
			name = "In"
		}
		fmt.Fprintf(b, "%s[%s](", name, s.typ)
		s.next.write(b)
		b.WriteString(")")
	case stepSelect, stepBranch:
		name := "Select"
		if s.kind == stepBranch {
			name = "Branch"
		}
		b.WriteString(name + "(")
		s.next.write(b)
		b.WriteString(", ")
		s.alt.write(b)
		b.WriteString(")")
	case stepLoop:
		b.WriteString("Loop(")
		s.next.write(b)
		b.WriteString(")")
	case stepContinue:
		b.WriteString("Continue")
	default:
		b.WriteString("Done")
	}
}
