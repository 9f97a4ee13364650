package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestReminderSweepRunsOnInterval(t *testing.T) {
	var calls atomic.Int32
	sched := New(Deps{
		Log: zerolog.Nop(),
		DeliverDueReminders: func(ctx context.Context, asOf time.Time) error {
			calls.Add(1)
			return nil
		},
	})
	// Drive the sweep body directly rather than waiting out real ticker
	// intervals, the same way the teacher's service_test.go exercises
	// onTimer() without sleeping through production cadences.
	sched.runReminderSweep(context.Background())
	sched.runReminderSweep(context.Background())
	require.Equal(t, int32(2), calls.Load())
}

func TestTriviaSweepRunsOnInterval(t *testing.T) {
	var calls atomic.Int32
	sched := New(Deps{
		Log: zerolog.Nop(),
		RunTriviaSweep: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	})
	sched.runTriviaSweep(context.Background())
	sched.runTriviaSweep(context.Background())
	require.Equal(t, int32(2), calls.Load())
}

func TestSweepGuardSkipsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var calls atomic.Int32
	sched := New(Deps{
		Log: zerolog.Nop(),
		SweepConversations: func(ctx context.Context) error {
			calls.Add(1)
			entered <- struct{}{}
			<-release
			return nil
		},
	})

	go sched.runConversationSweep(context.Background())
	<-entered

	// A second tick while the first is still running must be skipped.
	sched.runConversationSweep(context.Background())

	close(release)
	require.Equal(t, int32(1), calls.Load())
}

func TestStartStopIsIdempotentAndDrains(t *testing.T) {
	var sweeps atomic.Int32
	sched := New(Deps{
		Log:        zerolog.Nop(),
		SweepCache: func() int { sweeps.Add(1); return 0 },
	})
	sched.Start()
	sched.Stop()
	// A second Stop on an already-stopped scheduler must not panic or block.
	sched.Stop()
}
