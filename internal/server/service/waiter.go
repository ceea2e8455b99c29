package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for clock state changes
type WaitRegistry struct {
	mu       sync.RWMutex
	clk      clockwork.Clock
	waiters  map[string][]*WaitRequest // clockID → waiting clients
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest represents a single client waiting for clock updates
type WaitRequest struct {
	Version uint64          // Last snapshot version seen by the client
	Notify  chan struct{}   // Buffered channel for notifications
	Timer   clockwork.Timer // Timeout timer
	ClockID string
}

// NewWaitRegistry times out waiters on clk; nil means the wall clock
func NewWaitRegistry(clk clockwork.Clock) *WaitRegistry {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &WaitRegistry{
		clk:      clk,
		waiters:  make(map[string][]*WaitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel that receives once the clock moves past
// version, the wait times out, the clock is removed or the registry shuts
// down. The caller must cancel ctx when done waiting.
func (w *WaitRegistry) RegisterWait(ctx context.Context, clockID string, version uint64) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	req := &WaitRequest{
		Version: version,
		Notify:  make(chan struct{}, WaitChannelBuffer),
		ClockID: clockID,
	}

	if w.closed {
		signal(req)
		return req.Notify
	}

	req.Timer = w.clk.AfterFunc(WaitTimeout, func() {
		signal(req)
	})

	w.waiters[clockID] = append(w.waiters[clockID], req)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			// Client disconnected
			w.removeWaiter(clockID, req)
		case <-w.shutdown:
			req.Timer.Stop()
			signal(req)
		}
	}()

	return req.Notify
}

// NotifyClock wakes every waiter whose version differs from version
func (w *WaitRegistry) NotifyClock(clockID string, version uint64) {
	w.mu.Lock()
	waitList := w.waiters[clockID]
	var keep []*WaitRequest
	for _, req := range waitList {
		if req.Version != version {
			req.Timer.Stop()
			signal(req)
		} else {
			keep = append(keep, req)
		}
	}
	if len(keep) == 0 {
		delete(w.waiters, clockID)
	} else {
		w.waiters[clockID] = keep
	}
	w.mu.Unlock()
}

// RemoveClock wakes and drops all waiters for a clock
func (w *WaitRegistry) RemoveClock(clockID string) {
	w.mu.Lock()
	waitList := w.waiters[clockID]
	delete(w.waiters, clockID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.Timer.Stop()
		signal(req)
	}
}

// Pending returns the number of registered waiters for a clock
func (w *WaitRegistry) Pending(clockID string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.waiters[clockID])
}

// Shutdown releases every waiter and waits for their goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.waiters = make(map[string][]*WaitRequest)
	close(w.shutdown)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-w.clk.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}

func (w *WaitRegistry) removeWaiter(clockID string, req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[clockID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[clockID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}

	if len(w.waiters[clockID]) == 0 {
		delete(w.waiters, clockID)
	}

	req.Timer.Stop()
}

// signal sends without blocking; a full buffer already carries a wakeup
func signal(req *WaitRequest) {
	select {
	case req.Notify <- struct{}{}:
	default:
	}
}
