// Package ratelimit apportions outbound model requests per spec.md §4.4:
// priority-tiered per-user spacing, progressive cooldowns on denial, and a
// global provider quota window.
//
// This is deliberately built on the standard library's time.Time/Duration
// rather than golang.org/x/time/rate — see DESIGN.md: the token-bucket
// model that package provides doesn't express per-user progressive
// cooldowns or priority-tiered minimum intervals, and wiring it here would
// just relegate the spec's actual policy to hand-rolled code on top of it.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jonesy-ops/ash/internal/model"
)

// cooldownForOffense maps offense count to the cooldown duration applied on
// the next request, per spec.md §4.4.
func cooldownForOffense(offenses int) time.Duration {
	switch {
	case offenses <= 0:
		return 0
	case offenses == 1:
		return 30 * time.Second
	case offenses == 2:
		return 60 * time.Second
	case offenses == 3:
		return 120 * time.Second
	default:
		return 300 * time.Second
	}
}

const offenseDecayInterval = 10 * time.Minute

// Decision is the outcome of a Check call.
type Decision struct {
	Allow      bool
	Reason     string
	RetryAfter time.Duration
}

// GlobalQuota configures the provider-wide request budget.
type GlobalQuota struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Limiter is the RateLimiter. The mutex guarding its state is never held
// across a suspension point (spec.md §5) — Check only ever touches
// in-memory maps.
type Limiter struct {
	mu    sync.Mutex
	users map[string]*model.UserRateState
	quota GlobalQuota

	windowStart time.Time
	windowCount int

	now func() time.Time
}

// New constructs a Limiter with the given global provider quota.
func New(quota GlobalQuota) *Limiter {
	return &Limiter{
		users: make(map[string]*model.UserRateState),
		quota: quota,
		now:   time.Now,
	}
}

// Check evaluates whether a request from userID at priority may proceed.
// A too_soon denial counts as an offense: it increments the user's offense
// count, starts the matching cooldown, and reports that cooldown as
// RetryAfter. Cooldown and global_quota denials change no state.
func (l *Limiter) Check(userID string, priority model.Priority) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if d, denied := l.checkGlobalLocked(now); denied {
		return d
	}

	state := l.users[userID]
	if state == nil {
		state = &model.UserRateState{
			LastRequestAt:         make(map[model.Priority]time.Time),
			LastComplianceDecayAt: now,
		}
	}

	l.decayOffensesLocked(state, now)

	if now.Before(state.CooldownUntil) {
		return Decision{Allow: false, Reason: "cooldown", RetryAfter: state.CooldownUntil.Sub(now)}
	}

	if last, ok := state.LastRequestAt[priority]; ok {
		minInterval := priority.MinInterval()
		if elapsed := now.Sub(last); elapsed < minInterval {
			l.denyLocked(userID, state, now)
			return Decision{Allow: false, Reason: "too_soon", RetryAfter: state.CooldownUntil.Sub(now)}
		}
	}

	state.LastRequestAt[priority] = now
	l.users[userID] = state
	l.recordGlobalLocked(now)
	return Decision{Allow: true}
}

func (l *Limiter) checkGlobalLocked(now time.Time) (Decision, bool) {
	if l.quota.RequestsPerWindow <= 0 {
		return Decision{}, false
	}
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.quota.Window {
		return Decision{}, false
	}
	if l.windowCount >= l.quota.RequestsPerWindow {
		resetAt := l.windowStart.Add(l.quota.Window)
		return Decision{Allow: false, Reason: "global_quota", RetryAfter: resetAt.Sub(now)}, true
	}
	return Decision{}, false
}

func (l *Limiter) recordGlobalLocked(now time.Time) {
	if l.quota.RequestsPerWindow <= 0 {
		return
	}
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.quota.Window {
		l.windowStart = now
		l.windowCount = 0
	}
	l.windowCount++
}

// denyLocked increments the offense counter and sets the next cooldown.
func (l *Limiter) denyLocked(userID string, state *model.UserRateState, now time.Time) {
	state.OffenseCount++
	state.CooldownUntil = now.Add(cooldownForOffense(state.OffenseCount))
	l.users[userID] = state
}

// decayOffensesLocked decays the offense count by 1 for every full
// compliance interval elapsed since the last decay check.
func (l *Limiter) decayOffensesLocked(state *model.UserRateState, now time.Time) {
	if state.OffenseCount == 0 {
		state.LastComplianceDecayAt = now
		return
	}
	elapsed := now.Sub(state.LastComplianceDecayAt)
	steps := int(elapsed / offenseDecayInterval)
	if steps <= 0 {
		return
	}
	state.OffenseCount -= steps
	if state.OffenseCount < 0 {
		state.OffenseCount = 0
	}
	state.LastComplianceDecayAt = state.LastComplianceDecayAt.Add(time.Duration(steps) * offenseDecayInterval)
}

// OffenseCount returns the current offense count for a user, for
// diagnostics and tests.
func (l *Limiter) OffenseCount(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.users[userID]; ok {
		return s.OffenseCount
	}
	return 0
}
