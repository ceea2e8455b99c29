// Package events fans clock transitions out to optional subscribers.
package events

import (
	"time"

	"github.com/rs/zerolog/log"

	"chessclock/internal/server/clock"
)

// Event is one transition of one clock
type Event struct {
	ClockID  string           `json:"clockId"`
	Kind     clock.Transition `json:"kind"`
	Snapshot clock.Snapshot   `json:"snapshot"`
	At       time.Time        `json:"at"`
}

// Observer receives events. Notify is called on the clock's command path and
// must not block.
type Observer interface {
	Notify(Event)
}

// Multi fans an event out to every observer in order
type Multi []Observer

func (m Multi) Notify(ev Event) {
	for _, o := range m {
		if o != nil {
			o.Notify(ev)
		}
	}
}

// LogObserver writes transitions to the global logger. Ticks go to trace.
type LogObserver struct{}

func (LogObserver) Notify(ev Event) {
	logEvent := log.Info()
	if ev.Kind == clock.TransitionTicked {
		logEvent = log.Trace()
	}
	logEvent.
		Str("clock_id", ev.ClockID).
		Str("kind", string(ev.Kind)).
		Str("state", ev.Snapshot.State.String()).
		Str("active", ev.Snapshot.ActiveSide.String()).
		Int("a_seconds", ev.Snapshot.SideA.SecondsRemaining).
		Int("b_seconds", ev.Snapshot.SideB.SecondsRemaining).
		Msg("clock transition")
}
