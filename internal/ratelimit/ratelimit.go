package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-user sliding-window admission gate. State is process-local
// and lost on restart; this is a UX throttle, not a security control.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	seen   map[int64][]time.Time
	now    func() time.Time
}

func New(window time.Duration, limit int) *Limiter {
	return &Limiter{
		window: window,
		limit:  limit,
		seen:   make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// Admit reports whether a new request from user may proceed. Expired entries
// are pruned first; a rejected request leaves no trace beyond that pruning.
func (l *Limiter) Admit(user int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.seen[user][:0]
	for _, ts := range l.seen[user] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.limit {
		l.seen[user] = recent
		return false
	}

	l.seen[user] = append(recent, now)
	return true
}
