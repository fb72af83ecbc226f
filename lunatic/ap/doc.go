/*
Package ap provides abstract processes: long running processes that own a
piece of state and change it in response to typed messages and requests.

An abstract process is a state type with an Init method plus a list of
handlers. The handlers are declared once, as package level variables, and
their order fixes the index every client uses to address them:

	type Counter struct{ N int }

	func (Counter) Init(_ *ap.Config[Counter], start int) (Counter, error) {
		return Counter{N: start}, nil
	}

	var (
		Increment = ap.HandleMessage(func(c *Counter, _ *ap.Config[Counter], _ lunatic.Unit) { c.N++ })
		Count     = ap.HandleRequest(func(c *Counter, _ *ap.Config[Counter], _ lunatic.Unit) int { return c.N })

		Counters = ap.Handlers[Counter, int](Increment, Count)
	)

Clients start the process and talk to it through the handlers:

	ref, err := ap.Start(inst, Counters, 0)
	Increment.Send(ref, lunatic.Unit{})
	n, err := Count.Call(ref, lunatic.Unit{})

# Messages on the wire

Every handler gets an index from 1 to 16. A message for a handler carries the
index in the u6 payload of its tag (see [lunatic.Instance.TagFromU6]). Index
0 is a plain tag, used for replies; late replies that reach the process are
dropped. Index 32 asks the process to shut down and index 33 subscribes to
its shutdown. Any other index is a protocol violation and traps the process,
as does a payload that cannot be decoded.

# Optional behavior

A state type may implement [Terminator] to run code on an orderly shutdown
and [LinkDeathHandler] to survive the death of linked processes. A process
whose state implements LinkDeathHandler does not die with its links.

# Startup

Init runs inside the new process under [lunatic.CatchPanic]. The starter
waits for Init to finish and gets a [StartupError] if it panicked or returned
an error. Named starts lock the name in the registry first, so two racing
starts of the same name produce exactly one process.
*/
package ap
