// Package clock implements the two-sided chess clock state machine and the
// one-second tick driver that advances it.
package clock

import (
	"sync"

	"chessclock/internal/server/timecontrol"
)

// Catalog resolves time control ids
type Catalog interface {
	Lookup(id string) (timecontrol.Entry, error)
}

// PlayerTimer is one side's countdown
type PlayerTimer struct {
	MovesPlayed      int  `json:"movesPlayed"`
	SecondsRemaining int  `json:"secondsRemaining"`
	Paused           bool `json:"paused"`
	IncrementSeconds int  `json:"incrementSeconds"`
}

func newPlayerTimer(e timecontrol.Entry) PlayerTimer {
	return PlayerTimer{
		SecondsRemaining: e.StartSeconds,
		Paused:           true,
		IncrementSeconds: e.IncrementSeconds,
	}
}

// Snapshot is a read-only copy of the engine state
type Snapshot struct {
	TimeControl timecontrol.Entry `json:"timeControl"`
	SideA       PlayerTimer       `json:"sideA"`
	SideB       PlayerTimer       `json:"sideB"`
	ActiveSide  Side              `json:"activeSide"`
	State       State             `json:"state"`
	GameOver    bool              `json:"gameOver"`
	Version     uint64            `json:"version"`
}

// Timer returns the snapshot of the given side
func (s Snapshot) Timer(side Side) PlayerTimer {
	if side == SideB {
		return s.SideB
	}
	return s.SideA
}

// Engine owns both timers. All methods are safe for concurrent use; every
// mutation is serialized by the engine lock.
type Engine struct {
	mu      sync.Mutex
	catalog Catalog
	entry   timecontrol.Entry
	a, b    PlayerTimer
	active  Side
	state   State
	version uint64
}

// New creates an Idle engine configured with the time control id
func New(catalog Catalog, timeControlID string) (*Engine, error) {
	entry, err := catalog.Lookup(timeControlID)
	if err != nil {
		return nil, err
	}
	e := &Engine{catalog: catalog}
	e.reset(entry)
	return e, nil
}

// SelectTimeControl reconfigures and hard-resets the engine. A lookup failure
// is returned unchanged and leaves the engine untouched.
func (e *Engine) SelectTimeControl(id string) (Snapshot, error) {
	entry, err := e.catalog.Lookup(id)
	if err != nil {
		return e.Snapshot(), err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(entry)
	return e.snapshot(), nil
}

// Reset returns to Idle with the current time control
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(e.entry)
	return e.snapshot()
}

// Tap records that side just completed a move. The opening tap may come from
// either side; afterwards only the active side may tap.
func (e *Engine) Tap(side Side) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !side.Valid() {
		return e.snapshot(), &TransitionError{Op: "tap", Side: side, State: e.state, Reason: "unknown side"}
	}

	switch e.state {
	case StateGameOver:
		return e.snapshot(), &TransitionError{Op: "tap", Side: side, State: e.state, Reason: "game is over"}
	case StateRunning:
		if side != e.active {
			return e.snapshot(), &TransitionError{Op: "tap", Side: side, State: e.state, Reason: "side is not active"}
		}
	}

	mover, other := e.timer(side), e.timer(side.Opposite())

	// No increment on a side's first move
	if mover.MovesPlayed > 0 {
		mover.SecondsRemaining += mover.IncrementSeconds
	}
	mover.MovesPlayed++
	mover.Paused = true
	other.Paused = false

	e.active = side.Opposite()
	e.state = StateRunning
	e.version++
	return e.snapshot(), nil
}

// Tick advances the active side by one second. It reports false and changes
// nothing unless the engine is Running. Cadence is the caller's concern.
func (e *Engine) Tick() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return e.snapshot(), false
	}

	t := e.timer(e.active)
	if t.SecondsRemaining > 0 {
		t.SecondsRemaining--
	}
	if t.SecondsRemaining == 0 {
		e.expire()
	}
	e.version++
	return e.snapshot(), true
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// TimeControl returns the configured entry
func (e *Engine) TimeControl() timecontrol.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entry
}

func (e *Engine) reset(entry timecontrol.Entry) {
	e.entry = entry
	e.a = newPlayerTimer(entry)
	e.b = newPlayerTimer(entry)
	e.active = SideNone
	e.state = StateIdle
	e.version++
}

func (e *Engine) expire() {
	e.a.Paused = true
	e.b.Paused = true
	e.active = SideNone
	e.state = StateGameOver
}

func (e *Engine) timer(side Side) *PlayerTimer {
	if side == SideB {
		return &e.b
	}
	return &e.a
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		TimeControl: e.entry,
		SideA:       e.a,
		SideB:       e.b,
		ActiveSide:  e.active,
		State:       e.state,
		GameOver:    e.state == StateGameOver,
		Version:     e.version,
	}
}
