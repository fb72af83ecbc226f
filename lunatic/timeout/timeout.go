package timeout

import (
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
)

const (
	// Infinity is passed to the host as "wait forever".
	Infinity time.Duration = 1<<63 - 1
)

// Default bounds how long test harnesses wait for a root process to finish.
var Default time.Duration = chronos.Dur("5s")
