package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(limit int) (*Limiter, *time.Time) {
	l := New(60*time.Second, limit)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAdmitWithinBurst(t *testing.T) {
	l, now := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit(42), "request %d should be admitted", i+1)
		*now = now.Add(time.Second)
	}
	assert.False(t, l.Admit(42), "6th request inside the window must be rejected")
}

func TestAdmitAfterWindowExpires(t *testing.T) {
	l, now := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Admit(42))
	}
	assert.False(t, l.Admit(42))

	*now = now.Add(61 * time.Second)
	assert.True(t, l.Admit(42), "window has passed, request should be admitted again")
}

func TestRejectionDoesNotConsumeSlot(t *testing.T) {
	l, now := newTestLimiter(2)

	assert.True(t, l.Admit(1))
	assert.True(t, l.Admit(1))
	// Hammering while rejected must not extend the window.
	for i := 0; i < 10; i++ {
		assert.False(t, l.Admit(1))
	}
	*now = now.Add(61 * time.Second)
	assert.True(t, l.Admit(1))
}

func TestUsersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)

	assert.True(t, l.Admit(1))
	assert.False(t, l.Admit(1))
	assert.True(t, l.Admit(2), "another user's window is unaffected")
}
