// Package scheduler runs the periodic sweeps that keep reminders, the AI
// cache, conversation state, trivia sessions, and the game catalog from
// drifting out of date — grounded directly on the timer-rearm loop in the
// teacher's cron service, generalized from one dynamic job table to six
// fixed sweeps with known cadences (spec.md §4.8).
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Deps wires the sweep bodies in as plain functions, the same shape as the
// teacher's CronServiceDeps, so Scheduler stays ignorant of the catalog,
// cache, conversation, and reminder packages it drives.
type Deps struct {
	Now      func() time.Time
	Location *time.Location
	Log      zerolog.Logger

	// DeliverDueReminders loads every reminder with scheduled_at <= asOf
	// and status pending, and delivers each one.
	DeliverDueReminders func(ctx context.Context, asOf time.Time) error
	// SweepCache purges expired AI response cache entries and returns the
	// number removed.
	SweepCache func() int
	// SweepConversations expires conversation states idle past their flow TTL.
	SweepConversations func(ctx context.Context) error
	// RefreshCatalog revalidates every in_progress game against its
	// playlist sources.
	RefreshCatalog func(ctx context.Context) error
	// PostWeeklyAnnouncement posts the weekly summary to the configured channel.
	PostWeeklyAnnouncement func(ctx context.Context) error
	// RunTriviaSweep advances the trivia session lifecycle: posts a new
	// session when none is active and an approved question is waiting, and
	// completes the active session once its window has elapsed.
	RunTriviaSweep func(ctx context.Context) error
}

const (
	reminderSweepInterval     = 30 * time.Second
	cacheSweepInterval        = time.Hour
	conversationSweepInterval = 15 * time.Minute
	triviaSweepInterval       = 5 * time.Minute

	// shutdownDrain is the maximum time Stop waits for in-flight sweeps.
	shutdownDrain = 30 * time.Second
)

// Scheduler owns the periodic sweeps named in spec.md §4.8: reminder
// delivery, cache, conversation, and trivia run on a plain fixed interval;
// catalog refresh and weekly announcement are aligned to the clock via
// robfig/cron.
type Scheduler struct {
	deps Deps

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	cronSched *cron.Cron

	reminderRunning     atomic.Bool
	cacheRunning        atomic.Bool
	conversationRunning atomic.Bool
	catalogRunning      atomic.Bool
	announcementRunning atomic.Bool
	triviaRunning       atomic.Bool
}

// New constructs a Scheduler. deps.Now defaults to time.Now and
// deps.Location to time.Local when left nil/unset.
func New(deps Deps) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Scheduler{deps: deps}
}

// Start launches every sweep's goroutine (or cron entry). It is a no-op if
// already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})

	s.startFixedInterval(reminderSweepInterval, s.runReminderSweep)
	s.startFixedInterval(cacheSweepInterval, s.runCacheSweep)
	s.startFixedInterval(conversationSweepInterval, s.runConversationSweep)
	s.startFixedInterval(triviaSweepInterval, s.runTriviaSweep)

	s.cronSched = cron.New(cron.WithLocation(s.deps.Location))
	// Sunday 12:00 catalog refresh.
	_, _ = s.cronSched.AddFunc("0 12 * * 0", func() { s.runWithGuard(&s.catalogRunning, "catalog_refresh", s.deps.RefreshCatalog) })
	// Monday 09:00 weekly announcement.
	_, _ = s.cronSched.AddFunc("0 9 * * 1", func() { s.runWithGuard(&s.announcementRunning, "weekly_announcement", s.deps.PostWeeklyAnnouncement) })
	s.cronSched.Start()

	s.deps.Log.Info().Msg("scheduler: started")
}

// Stop signals every sweep loop to exit, so no new sweep run starts, and
// waits up to shutdownDrain in total for in-flight runs to return. A run in
// progress is not interrupted between records: it continues to the end of
// its sweep, and one still running when the drain expires keeps running
// after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	cronSched := s.cronSched
	s.mu.Unlock()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()

	if cronSched != nil {
		cronCtx := cronSched.Stop()
		select {
		case <-cronCtx.Done():
		case <-drainCtx.Done():
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-drainCtx.Done():
		s.deps.Log.Warn().Msg("scheduler: shutdown drain timed out")
	}
}

func (s *Scheduler) startFixedInterval(interval time.Duration, run func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				run(context.Background())
			}
		}
	}()
}

// runWithGuard enforces spec.md §4.8's "at most one instance of each sweep
// runs at a time" by skipping the tick entirely when the previous run of
// the same sweep hasn't finished.
func (s *Scheduler) runWithGuard(flag *atomic.Bool, name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	if !flag.CompareAndSwap(false, true) {
		s.deps.Log.Debug().Str("sweep", name).Msg("scheduler: previous run still in flight, skipping")
		return
	}
	defer flag.Store(false)

	started := s.deps.Now()
	err := fn(context.Background())
	elapsed := s.deps.Now().Sub(started)
	if err != nil {
		s.deps.Log.Error().Err(err).Str("sweep", name).Dur("elapsed", elapsed).Msg("scheduler: sweep failed")
		return
	}
	s.deps.Log.Debug().Str("sweep", name).Dur("elapsed", elapsed).Msg("scheduler: sweep completed")
}

func (s *Scheduler) runReminderSweep(ctx context.Context) {
	if s.deps.DeliverDueReminders == nil {
		return
	}
	s.runWithGuard(&s.reminderRunning, "reminder_delivery", func(ctx context.Context) error {
		return s.deps.DeliverDueReminders(ctx, s.deps.Now())
	})
}

func (s *Scheduler) runCacheSweep(ctx context.Context) {
	if s.deps.SweepCache == nil {
		return
	}
	s.runWithGuard(&s.cacheRunning, "cache_sweep", func(ctx context.Context) error {
		s.deps.SweepCache()
		return nil
	})
}

func (s *Scheduler) runConversationSweep(ctx context.Context) {
	if s.deps.SweepConversations == nil {
		return
	}
	s.runWithGuard(&s.conversationRunning, "conversation_sweep", s.deps.SweepConversations)
}

func (s *Scheduler) runTriviaSweep(ctx context.Context) {
	if s.deps.RunTriviaSweep == nil {
		return
	}
	s.runWithGuard(&s.triviaRunning, "trivia_sweep", s.deps.RunTriviaSweep)
}
