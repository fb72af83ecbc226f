/*
Package supervisor builds supervision trees out of abstract processes.

A supervisor is itself an abstract process. It starts its children in order,
linked to itself under one tag per child, and restarts them according to its
[Strategy] when they die. If children die more often than the [SupFlags]
allow, the supervisor gives up and traps, which takes down the remaining
children and propagates the failure to whoever is linked to the supervisor.

	var app = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Flags(supervisor.NewSupFlags(supervisor.SetStrategy(supervisor.OneForAll)))
		s.Children(
			supervisor.Child(counters, 0, supervisor.Name(lunatic.Name("counter"))),
			supervisor.Child(caches, cacheSize),
		)
	})

	ref, err := app.StartLink(inst, lunatic.Unit{})

Like every abstract process definition, supervisors must be defined during
package initialization.
*/
package supervisor
