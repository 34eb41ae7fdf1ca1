// cooldown.go: duplicate-confirmation suppression per card id
package scanner

import (
	"sync"
	"time"
)

// CooldownTracker suppresses repeated confirmations of the same card while
// it stays in frame. Once an id is confirmed it cannot confirm again until
// the cooldown has elapsed, regardless of fresh samples.
type CooldownTracker struct {
	lastConfirmed   map[string]time.Time
	defaultCooldown time.Duration
	overrides       map[string]time.Duration // per-entry cooldown overrides
	mu              sync.Mutex
}

// NewCooldownTracker creates a tracker with the given default cooldown.
func NewCooldownTracker(cooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{
		lastConfirmed:   make(map[string]time.Time),
		defaultCooldown: cooldown,
		overrides:       make(map[string]time.Duration),
	}
}

// SetOverride configures a per-id cooldown differing from the default.
func (t *CooldownTracker) SetOverride(id string, cooldown time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overrides[id] = cooldown
}

// ShouldConfirm reports whether the id may confirm at the given time, and
// records the confirmation when it may.
func (t *CooldownTracker) ShouldConfirm(id string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cooldown := t.defaultCooldown
	if override, ok := t.overrides[id]; ok {
		cooldown = override
	}

	last, exists := t.lastConfirmed[id]
	if exists && now.Sub(last) < cooldown {
		return false
	}
	t.lastConfirmed[id] = now
	return true
}

// Reset clears the tracked confirmation for an id, re-arming it immediately.
func (t *CooldownTracker) Reset(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastConfirmed, id)
}
