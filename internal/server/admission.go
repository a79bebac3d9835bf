package server

import (
	"context"
	"sync"
)

// admission hands out worker slots in submission order. A place in line is
// reserved synchronously by enqueue, so the order does not depend on when
// job goroutines get scheduled.
type admission struct {
	mu      sync.Mutex
	free    int
	waiting []chan struct{}
}

func newAdmission(slots int) *admission {
	if slots < 1 {
		slots = 1
	}
	return &admission{free: slots}
}

// enqueue reserves a place in line. The returned ticket is closed once a
// slot has been granted to it.
func (a *admission) enqueue() chan struct{} {
	ticket := make(chan struct{})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.free > 0 && len(a.waiting) == 0 {
		a.free--
		close(ticket)
		return ticket
	}
	a.waiting = append(a.waiting, ticket)
	return ticket
}

// wait blocks until ticket is granted or ctx is done. On cancellation the
// ticket leaves the line; a slot granted in the meantime is passed on.
func (a *admission) wait(ctx context.Context, ticket chan struct{}) error {
	select {
	case <-ticket:
		return nil
	case <-ctx.Done():
	}

	a.mu.Lock()
	for i, t := range a.waiting {
		if t == ticket {
			a.waiting = append(a.waiting[:i], a.waiting[i+1:]...)
			a.mu.Unlock()
			return ctx.Err()
		}
	}
	a.mu.Unlock()

	a.release()
	return ctx.Err()
}

// release returns a slot, granting it to the oldest waiting ticket.
func (a *admission) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.waiting) > 0 {
		next := a.waiting[0]
		a.waiting = a.waiting[1:]
		close(next)
		return
	}
	a.free++
}

// queued returns the number of tickets waiting for a slot.
func (a *admission) queued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.waiting)
}
