// Package stopwatch measures elapsed wall time. A Stopwatch is a plain value
// owned by its caller, so concurrent workers each keep their own.
package stopwatch

import (
	"fmt"
	"time"
)

// Stopwatch records a start instant.
type Stopwatch struct {
	start time.Time
	now   func() time.Time
}

// Start returns a running stopwatch.
func Start() Stopwatch {
	return Stopwatch{start: time.Now(), now: time.Now}
}

// Restart resets the start instant to now.
func (s *Stopwatch) Restart() {
	s.start = s.clock()()
}

// Started reports whether the stopwatch has been started.
func (s Stopwatch) Started() bool {
	return !s.start.IsZero()
}

// Elapsed returns the time since Start. An unstarted stopwatch reports zero.
func (s Stopwatch) Elapsed() time.Duration {
	if !s.Started() {
		return 0
	}
	return s.clock()().Sub(s.start)
}

// Seconds returns Elapsed in seconds.
func (s Stopwatch) Seconds() float64 {
	return s.Elapsed().Seconds()
}

// String formats the elapsed time as "Elapsed time is N.NNN seconds."
func (s Stopwatch) String() string {
	return fmt.Sprintf("Elapsed time is %.3f seconds.", s.Seconds())
}

func (s Stopwatch) clock() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}
