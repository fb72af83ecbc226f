package supervisor

import (
	"errors"
	"time"

	"github.com/uberbrodt/fungo/fun"

	"github.com/lunatic-solutions/lunatic-go/chronos"
)

// Strategy decides which children restart when one of them dies.
type Strategy string

const (
	// OneForOne restarts only the child that died.
	OneForOne Strategy = "one_for_one"
	// OneForAll stops every other child and restarts all of them in start order.
	OneForAll Strategy = "one_for_all"
	// RestForOne stops the children started after the one that died and
	// restarts it and them in start order.
	RestForOne Strategy = "rest_for_one"
)

// SupFlags bound how often a supervisor may restart its children: more than
// Intensity restarts within Period make the supervisor trap.
type SupFlags struct {
	Strategy  Strategy
	Intensity int
	Period    time.Duration
}

type SupFlag func(flags SupFlags) SupFlags

func SetStrategy(strategy Strategy) SupFlag {
	return func(flags SupFlags) SupFlags {
		flags.Strategy = strategy
		return flags
	}
}

func SetIntensity(intensity int) SupFlag {
	return func(flags SupFlags) SupFlags {
		flags.Intensity = intensity
		return flags
	}
}

func SetPeriod(period time.Duration) SupFlag {
	return func(flags SupFlags) SupFlags {
		flags.Period = period
		return flags
	}
}

// NewSupFlags returns the flags with [opts] applied over the defaults:
// OneForOne, at most 1 restart in 5 seconds.
func NewSupFlags(opts ...SupFlag) SupFlags {
	flags := SupFlags{
		Strategy:  OneForOne,
		Intensity: 1,
		Period:    chronos.Dur("5s"),
	}
	for _, opt := range opts {
		flags = opt(flags)
	}
	return flags
}

var errIntensity = errors.New("supervisor: restart intensity exceeded")

// addRestart records a restart at [now] and forgets the ones that left the
// period. It fails once the restarts left exceed the intensity.
func addRestart(restarts []time.Time, flags SupFlags, now time.Time) ([]time.Time, error) {
	since := now.Add(-flags.Period)
	restarts = fun.Filter(append(restarts, now), func(r time.Time) bool {
		return r.After(since)
	})
	if len(restarts) > flags.Intensity {
		return restarts, errIntensity
	}
	return restarts, nil
}
