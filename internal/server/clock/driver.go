package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the countdown cadence
const TickInterval = time.Second

// Listener receives every transition, in order, while the driver lock is
// held. Implementations must not call back into the driver.
type Listener interface {
	OnTransition(kind Transition, snap Snapshot)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(kind Transition, snap Snapshot)

func (f ListenerFunc) OnTransition(kind Transition, snap Snapshot) { f(kind, snap) }

// Driver owns the tick timer of one engine. Every command disarms the
// pending timer and arms a fresh one-shot timer if the engine is Running,
// so a timer armed for a previous turn can never tick the wrong side.
type Driver struct {
	mu       sync.Mutex
	engine   *Engine
	clock    clockwork.Clock
	interval time.Duration
	listener Listener
	timer    clockwork.Timer
	gen      uint64 // bumped on every disarm, stale firings compare unequal
	closed   bool
}

// NewDriver wraps engine. A nil clock means the real clock; a nil listener
// discards transitions.
func NewDriver(engine *Engine, clk clockwork.Clock, listener Listener) *Driver {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if listener == nil {
		listener = ListenerFunc(func(Transition, Snapshot) {})
	}
	return &Driver{
		engine:   engine,
		clock:    clk,
		interval: TickInterval,
		listener: listener,
	}
}

// Tap forwards to the engine and rearms the tick
func (d *Driver) Tap(side Side) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.engine.Snapshot()
	snap, err := d.engine.Tap(side)
	if err != nil {
		return snap, err
	}

	kind := TransitionSwitched
	if prev.State == StateIdle {
		kind = TransitionStarted
	}
	d.listener.OnTransition(kind, snap)
	d.rearm(snap)
	return snap, nil
}

// Reset forwards to the engine and disarms the tick
func (d *Driver) Reset() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.engine.Reset()
	d.listener.OnTransition(TransitionReset, snap)
	d.rearm(snap)
	return snap
}

// SelectTimeControl forwards to the engine; on lookup failure nothing changes
func (d *Driver) SelectTimeControl(id string) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap, err := d.engine.SelectTimeControl(id)
	if err != nil {
		return snap, err
	}
	d.listener.OnTransition(TransitionReset, snap)
	d.rearm(snap)
	return snap, nil
}

// Snapshot reads engine state without taking the driver lock
func (d *Driver) Snapshot() Snapshot {
	return d.engine.Snapshot()
}

// Armed reports whether a tick is pending
func (d *Driver) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Close disarms the tick permanently. Commands still reach the engine but
// no further ticks are scheduled.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.disarm()
}

func (d *Driver) rearm(snap Snapshot) {
	d.disarm()
	if d.closed || snap.State != StateRunning {
		return
	}
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.interval, func() {
		d.fire(gen)
	})
}

func (d *Driver) disarm() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Driver) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen || d.closed {
		return
	}
	d.timer = nil

	snap, changed := d.engine.Tick()
	if !changed {
		return
	}

	kind := TransitionTicked
	if snap.State == StateGameOver {
		kind = TransitionExpired
	}
	d.listener.OnTransition(kind, snap)
	d.rearm(snap)
}
