package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"chessclock/internal/server/clock"
	"chessclock/internal/server/events"
	"chessclock/internal/server/storage"
	"chessclock/internal/server/timecontrol"
)

const (
	DefaultMaxClocks   = 1000
	IdleClockTTL       = 6 * time.Hour
	CleanupJobInterval = 10 * time.Minute
)

var (
	ErrClockNotFound = errors.New("clock not found")
	ErrClockLimit    = errors.New("clock limit reached")
)

// Options configures optional collaborators. Zero values disable storage and
// events and use the real clock.
type Options struct {
	Store     *storage.Store
	Observer  events.Observer
	Clock     clockwork.Clock
	MaxClocks int
	IdleTTL   time.Duration
}

// hostedClock is one engine with its driver and bookkeeping
type hostedClock struct {
	id       string
	driver   *clock.Driver
	lastUsed atomic.Int64 // unix nanos of the last command
}

// Service hosts clocks by id and coordinates drivers, waiters, events and storage
type Service struct {
	clocks    map[string]*hostedClock
	mu        sync.RWMutex
	catalog   *timecontrol.Catalog
	store     *storage.Store
	observer  events.Observer
	clk       clockwork.Clock
	waiter    *WaitRegistry
	maxClocks int
	idleTTL   time.Duration
}

// New creates a new service over the catalog
func New(catalog *timecontrol.Catalog, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MaxClocks <= 0 {
		opts.MaxClocks = DefaultMaxClocks
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = IdleClockTTL
	}

	return &Service{
		clocks:    make(map[string]*hostedClock),
		catalog:   catalog,
		store:     opts.Store,
		observer:  opts.Observer,
		clk:       opts.Clock,
		waiter:    NewWaitRegistry(opts.Clock),
		maxClocks: opts.MaxClocks,
		idleTTL:   opts.IdleTTL,
	}
}

// TimeControls lists the catalog in display order
func (s *Service) TimeControls() []timecontrol.Entry {
	return s.catalog.Entries()
}

// DefaultTimeControl returns the id used when a request omits one
func (s *Service) DefaultTimeControl() string {
	return timecontrol.DefaultID
}

// CreateClock registers a new Idle clock. An empty id selects the default.
func (s *Service) CreateClock(timeControlID string) (string, clock.Snapshot, error) {
	if timeControlID == "" {
		timeControlID = timecontrol.DefaultID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clocks) >= s.maxClocks {
		return "", clock.Snapshot{}, ErrClockLimit
	}

	id := uuid.New().String()
	hc, err := s.host(id, timeControlID)
	if err != nil {
		return "", clock.Snapshot{}, err
	}

	if s.store != nil {
		now := s.clk.Now().UTC()
		s.store.RecordClock(storage.ClockRecord{
			ClockID:     id,
			TimeControl: timeControlID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	log.Info().Str("clock_id", id).Str("time_control", timeControlID).Msg("clock created")
	return id, hc.driver.Snapshot(), nil
}

// host builds the engine and driver for id and adds it to the map.
// Caller holds s.mu.
func (s *Service) host(id, timeControlID string) (*hostedClock, error) {
	engine, err := clock.New(s.catalog, timeControlID)
	if err != nil {
		return nil, err
	}

	hc := &hostedClock{id: id}
	hc.driver = clock.NewDriver(engine, s.clk, clock.ListenerFunc(func(kind clock.Transition, snap clock.Snapshot) {
		s.onTransition(id, kind, snap)
	}))
	hc.lastUsed.Store(s.clk.Now().UnixNano())
	s.clocks[id] = hc
	return hc, nil
}

func (s *Service) onTransition(id string, kind clock.Transition, snap clock.Snapshot) {
	s.waiter.NotifyClock(id, snap.Version)
	if s.observer != nil {
		s.observer.Notify(events.Event{
			ClockID:  id,
			Kind:     kind,
			Snapshot: snap,
			At:       s.clk.Now().UTC(),
		})
	}
}

func (s *Service) get(id string) (*hostedClock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hc, ok := s.clocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClockNotFound, id)
	}
	return hc, nil
}

// GetClock returns the current snapshot
func (s *Service) GetClock(id string) (clock.Snapshot, error) {
	hc, err := s.get(id)
	if err != nil {
		return clock.Snapshot{}, err
	}
	return hc.driver.Snapshot(), nil
}

// Tap records a completed move by side
func (s *Service) Tap(id string, side clock.Side) (clock.Snapshot, error) {
	hc, err := s.get(id)
	if err != nil {
		return clock.Snapshot{}, err
	}
	hc.lastUsed.Store(s.clk.Now().UnixNano())
	return hc.driver.Tap(side)
}

// Reset restarts the clock with its current time control
func (s *Service) Reset(id string) (clock.Snapshot, error) {
	hc, err := s.get(id)
	if err != nil {
		return clock.Snapshot{}, err
	}
	now := s.clk.Now()
	hc.lastUsed.Store(now.UnixNano())
	snap := hc.driver.Reset()

	if s.store != nil {
		s.store.TouchClock(id, now.UTC())
	}
	return snap, nil
}

// SelectTimeControl reconfigures and resets the clock
func (s *Service) SelectTimeControl(id, timeControlID string) (clock.Snapshot, error) {
	hc, err := s.get(id)
	if err != nil {
		return clock.Snapshot{}, err
	}
	now := s.clk.Now()
	hc.lastUsed.Store(now.UnixNano())

	snap, err := hc.driver.SelectTimeControl(timeControlID)
	if err != nil {
		return snap, err
	}

	if s.store != nil {
		s.store.UpdateTimeControl(id, timeControlID, now.UTC())
	}
	return snap, nil
}

// DeleteClock stops and removes a clock
func (s *Service) DeleteClock(id string) error {
	s.mu.Lock()
	hc, ok := s.clocks[id]
	if ok {
		delete(s.clocks, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrClockNotFound, id)
	}

	s.release(hc)
	return nil
}

func (s *Service) release(hc *hostedClock) {
	hc.driver.Close()
	s.waiter.RemoveClock(hc.id)
	if s.store != nil {
		s.store.DeleteClock(hc.id)
	}
}

// ClockCount returns the number of hosted clocks
func (s *Service) ClockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clocks)
}

// RegisterWait registers a long-poll waiter for a version change
func (s *Service) RegisterWait(ctx context.Context, id string, version uint64) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, id, version)
}

// RestoreClocks rehosts every stored clock as Idle with its time control.
// Records whose time control no longer resolves are skipped.
func (s *Service) RestoreClocks() (int, error) {
	if s.store == nil {
		return 0, nil
	}

	records, err := s.store.ListClocks()
	if err != nil {
		return 0, fmt.Errorf("failed to list stored clocks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, r := range records {
		if len(s.clocks) >= s.maxClocks {
			log.Warn().Int("skipped", len(records)-restored).Msg("clock limit reached during restore")
			break
		}
		if _, exists := s.clocks[r.ClockID]; exists {
			continue
		}
		if _, err := s.host(r.ClockID, r.TimeControl); err != nil {
			log.Warn().Err(err).Str("clock_id", r.ClockID).Msg("skipping stored clock")
			continue
		}
		restored++
	}
	return restored, nil
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RunCleanupJob periodically evicts clocks idle for longer than the TTL
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := s.clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.evictIdle(); n > 0 {
				log.Info().Int("evicted", n).Msg("cleanup: evicted idle clocks")
			}
		}
	}
}

func (s *Service) evictIdle() int {
	cutoff := s.clk.Now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	var stale []*hostedClock
	for id, hc := range s.clocks {
		if hc.lastUsed.Load() < cutoff {
			stale = append(stale, hc)
			delete(s.clocks, id)
		}
	}
	s.mu.Unlock()

	for _, hc := range stale {
		s.release(hc)
	}
	return len(stale)
}

// Shutdown stops every driver and releases waiters. Storage is owned by the
// caller and closed separately.
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	s.mu.Lock()
	for _, hc := range s.clocks {
		hc.driver.Close()
	}
	s.clocks = make(map[string]*hostedClock)
	s.mu.Unlock()

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	return errors.Join(errs...)
}
