package core

import (
	"time"

	"github.com/jabolina/maelnode/pkg/node/types"
)

// TimerRegistry tracks every application-defined periodic timer registered
// during init. Firing is strictly periodic with no catch-up: a tick that
// runs late fires at most once per interval per registration (§4.5).
type TimerRegistry struct {
	specs map[types.TimerTag]types.TimerSpec
}

// NewTimerRegistry returns an empty registry.
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{specs: make(map[types.TimerTag]types.TimerSpec)}
}

// Register adds a new periodic timer, its last-fire instant seeded to now.
func (r *TimerRegistry) Register(tag types.TimerTag, interval time.Duration, now time.Time) {
	r.specs[tag] = types.TimerSpec{Tag: tag, Interval: interval, LastFire: now}
}

// Tick runs one registry pass at instant now: every due timer fires once
// and has its last-fire instant advanced to now. Returns the fired tags and
// the minimum remaining interval across every registration, a timer fired
// this pass counting its full interval. nextDeadline is negative when no
// timers are registered: callers must treat that as "no deadline to
// report", not as "due right now", or the dispatcher busy-spins once idle.
func (r *TimerRegistry) Tick(now time.Time) (fired []types.TimerTag, nextDeadline time.Duration) {
	nextDeadline = -1
	for tag, spec := range r.specs {
		if spec.Due(now) {
			fired = append(fired, tag)
			spec.LastFire = now
			r.specs[tag] = spec
		}
		remaining := spec.Remaining(now)
		if nextDeadline < 0 || remaining < nextDeadline {
			nextDeadline = remaining
		}
	}
	return fired, nextDeadline
}
