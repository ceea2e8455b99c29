package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"chessclock/internal/server/clock"
	"chessclock/internal/server/events"
	"chessclock/internal/server/storage"
	"chessclock/internal/server/timecontrol"
)

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) Notify(ev events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []clock.Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]clock.Transition, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestService(t *testing.T, opts Options) (*Service, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	opts.Clock = fc
	svc := New(timecontrol.New(), opts)
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	return svc, fc
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestService_ClockLifecycle(t *testing.T) {
	obs := &eventLog{}
	svc, fc := newTestService(t, Options{Observer: obs})

	id, snap, err := svc.CreateClock("")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.TimeControl.ID != timecontrol.DefaultID || snap.State != clock.StateIdle {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	if _, err := svc.Tap(id, clock.SideA); err != nil {
		t.Fatalf("tap: %v", err)
	}
	fc.Advance(clock.TickInterval)
	waitUntil(t, "tick", func() bool {
		s, _ := svc.GetClock(id)
		return s.SideB.SecondsRemaining == 179
	})

	if _, err := svc.Tap(id, clock.SideA); !errors.Is(err, clock.ErrInvalidTransition) {
		t.Errorf("expected invalid transition on double tap, got %v", err)
	}

	snap, err = svc.SelectTimeControl(id, "1+0")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if snap.SideA.SecondsRemaining != 60 || snap.State != clock.StateIdle {
		t.Errorf("unexpected snapshot after select %+v", snap)
	}

	var nf *timecontrol.NotFoundError
	if _, err := svc.SelectTimeControl(id, "99+1"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	snap, err = svc.Reset(id)
	if err != nil || snap.State != clock.StateIdle {
		t.Errorf("reset: %v %+v", err, snap)
	}

	if err := svc.DeleteClock(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetClock(id); !errors.Is(err, ErrClockNotFound) {
		t.Errorf("expected ErrClockNotFound after delete, got %v", err)
	}

	want := []clock.Transition{clock.TransitionStarted, clock.TransitionTicked, clock.TransitionReset, clock.TransitionReset}
	got := obs.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestService_UnknownClock(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	if _, err := svc.Tap("missing", clock.SideA); !errors.Is(err, ErrClockNotFound) {
		t.Errorf("tap: expected ErrClockNotFound, got %v", err)
	}
	if _, err := svc.Reset("missing"); !errors.Is(err, ErrClockNotFound) {
		t.Errorf("reset: expected ErrClockNotFound, got %v", err)
	}
	if err := svc.DeleteClock("missing"); !errors.Is(err, ErrClockNotFound) {
		t.Errorf("delete: expected ErrClockNotFound, got %v", err)
	}
}

func TestService_CreateUnknownTimeControl(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	var nf *timecontrol.NotFoundError
	if _, _, err := svc.CreateClock("0+0"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if svc.ClockCount() != 0 {
		t.Error("failed create left a clock behind")
	}
}

func TestService_ClockLimit(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxClocks: 2})

	for i := 0; i < 2; i++ {
		if _, _, err := svc.CreateClock("1+0"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, _, err := svc.CreateClock("1+0"); !errors.Is(err, ErrClockLimit) {
		t.Errorf("expected ErrClockLimit, got %v", err)
	}
}

func TestService_WaitWakesOnChange(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	id, snap, _ := svc.CreateClock("3+0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notify := svc.RegisterWait(ctx, id, snap.Version)

	select {
	case <-notify:
		t.Fatal("woken before any change")
	case <-time.After(20 * time.Millisecond):
	}

	svc.Tap(id, clock.SideB)

	select {
	case <-notify:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by tap")
	}
}

func TestService_WaitTimesOut(t *testing.T) {
	svc, fc := newTestService(t, Options{})
	id, snap, _ := svc.CreateClock("3+0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notify := svc.RegisterWait(ctx, id, snap.Version)

	fc.Advance(WaitTimeout - time.Second)
	select {
	case <-notify:
		t.Fatal("woken before the wait timeout")
	case <-time.After(20 * time.Millisecond):
	}

	fc.Advance(time.Second)
	select {
	case <-notify:
	case <-time.After(time.Second):
		t.Fatal("waiter not released at the wait timeout")
	}
}

func TestService_WaitWakesOnDelete(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	id, snap, _ := svc.CreateClock("3+0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notify := svc.RegisterWait(ctx, id, snap.Version)

	svc.DeleteClock(id)

	select {
	case <-notify:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by delete")
	}
}

func TestService_EvictIdle(t *testing.T) {
	svc, fc := newTestService(t, Options{IdleTTL: time.Hour})

	old, _, _ := svc.CreateClock("1+0")
	fc.Advance(50 * time.Minute)
	fresh, _, _ := svc.CreateClock("1+0")
	fc.Advance(20 * time.Minute)

	if n := svc.evictIdle(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := svc.GetClock(old); !errors.Is(err, ErrClockNotFound) {
		t.Error("idle clock survived eviction")
	}
	if _, err := svc.GetClock(fresh); err != nil {
		t.Errorf("fresh clock evicted: %v", err)
	}
}

func TestService_RestoreFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clocks.db")
	store, err := storage.NewStore(path, false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	first, _ := newTestService(t, Options{Store: store})
	id, _, err := first.CreateClock("5+3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first.Tap(id, clock.SideA)
	if _, err := first.SelectTimeControl(id, "15+10"); err != nil {
		t.Fatalf("select: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	second, _ := newTestService(t, Options{Store: store})
	n, err := second.RestoreClocks()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 restored clock, got %d", n)
	}

	snap, err := second.GetClock(id)
	if err != nil {
		t.Fatalf("restored clock missing: %v", err)
	}
	if snap.TimeControl.ID != "15+10" || snap.State != clock.StateIdle || snap.SideA.SecondsRemaining != 900 {
		t.Errorf("unexpected restored snapshot %+v", snap)
	}
	if second.GetStorageHealth() != "ok" {
		t.Errorf("expected storage ok, got %s", second.GetStorageHealth())
	}
}

func TestService_StorageDisabled(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	if svc.GetStorageHealth() != "disabled" {
		t.Errorf("expected disabled, got %s", svc.GetStorageHealth())
	}
	if n, err := svc.RestoreClocks(); n != 0 || err != nil {
		t.Errorf("restore without store: %d %v", n, err)
	}
}
