package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func granted(ticket chan struct{}) bool {
	select {
	case <-ticket:
		return true
	default:
		return false
	}
}

func TestAdmissionGrantsInSubmissionOrder(t *testing.T) {
	a := newAdmission(2)

	tickets := make([]chan struct{}, 5)
	for i := range tickets {
		tickets[i] = a.enqueue()
	}
	assert.True(t, granted(tickets[0]))
	assert.True(t, granted(tickets[1]))
	assert.Equal(t, 3, a.queued())

	for i := 2; i < len(tickets); i++ {
		for j := i; j < len(tickets); j++ {
			assert.False(t, granted(tickets[j]), "ticket %d granted before its turn", j)
		}
		a.release()
		assert.True(t, granted(tickets[i]), "ticket %d", i)
	}
	assert.Zero(t, a.queued())

	a.release()
	a.release()
	assert.True(t, granted(a.enqueue()))
	assert.True(t, granted(a.enqueue()))
	assert.False(t, granted(a.enqueue()))
}

func TestAdmissionWaitCancelled(t *testing.T) {
	a := newAdmission(1)
	first := a.enqueue()
	second := a.enqueue()
	third := a.enqueue()

	require.NoError(t, a.wait(context.Background(), first))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.wait(ctx, second), context.Canceled)
	assert.Equal(t, 1, a.queued(), "a cancelled ticket leaves the line")

	// The slot skips the cancelled ticket.
	a.release()
	ctx, cancelWait := context.WithTimeout(context.Background(), time.Second)
	defer cancelWait()
	assert.NoError(t, a.wait(ctx, third))
	assert.False(t, granted(second))
}

func TestAdmissionPassesOnSlotGrantedDuringCancel(t *testing.T) {
	a := newAdmission(1)
	first := a.enqueue()
	second := a.enqueue()
	require.True(t, granted(first))

	// second is granted and cancelled before it observes the grant.
	a.release()
	require.True(t, granted(second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Whichever branch wait takes, the slot must end up free or held by
	// the caller.
	if err := a.wait(ctx, second); err == nil {
		a.release()
	}
	assert.True(t, granted(a.enqueue()))
}
