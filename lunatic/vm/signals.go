package vm

import "github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"

// A signal is how processes of the host talk to each other. Every signal sent to
// a process is handled, in order, by that process's signal loop. Only the loop
// touches the process's links and monitors and only the loop exits the process.
// Data messages travel as signals too, so a message sent before a process died
// always reaches a linked peer's mailbox before the link death does.
type signal interface {
	signalName() string
}

// a data message for the mailbox
type messageSignal struct {
	msg *message
}

func (messageSignal) signalName() string { return "message" }

// LINK, both ends store the same tag
type linkSignal struct {
	peer uint64
	tag  int64
}

func (linkSignal) signalName() string { return "link" }

// UNLINK
type unlinkSignal struct {
	peer uint64
}

func (unlinkSignal) signalName() string { return "unlink" }

// MONITOR
type monitorSignal struct {
	watcher uint64
}

func (monitorSignal) signalName() string { return "monitor" }

// DEMONITOR
type demonitorSignal struct {
	watcher uint64
}

func (demonitorSignal) signalName() string { return "demonitor" }

// Sent to every linked process when a process exits abnormally. [tag] is only
// used when the receiver has no link entry for [sender], which happens when the
// link was made to a process that was already dead.
type exitSignal struct {
	sender uint64
	tag    int64
	reason *exitreason.S
}

func (exitSignal) signalName() string { return "exit" }

// Received by a monitoring process when the monitored process exits.
type downSignal struct {
	proc uint64
}

func (downSignal) signalName() string { return "down" }

// Untrappable.
type killSignal struct{}

func (killSignal) signalName() string { return "kill" }

// Sent by a process's guest goroutine to its own loop when the entry function
// returns or panics.
type finishedSignal struct {
	reason *exitreason.S
}

func (finishedSignal) signalName() string { return "finished" }
