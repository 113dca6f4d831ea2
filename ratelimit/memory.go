package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Suitable for a
// single instance; use the Redis limiter when running more than one.
type MemoryLimiter struct {
	mu      sync.Mutex
	rates   map[string]Rate
	fall    Rate
	entries map[string]*memoryEntry

	lastCleanup time.Time
}

// NewMemoryLimiter builds a limiter with per-scope rates. Keys whose scope
// prefix has no configured rate fall back to fallback.
func NewMemoryLimiter(rates map[string]Rate, fallback Rate) *MemoryLimiter {
	if rates == nil {
		rates = DefaultRates()
	}
	return &MemoryLimiter{
		rates:   rates,
		fall:    fallback,
		entries: make(map[string]*memoryEntry),
	}
}

func (m *MemoryLimiter) rateFor(key string) Rate {
	for scope, rate := range m.rates {
		if len(key) >= len(scope) && key[:len(scope)] == scope {
			return rate
		}
	}
	return m.fall
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, now time.Time) (bool, time.Duration, error) {
	rate := m.rateFor(key)
	if rate.Requests <= 0 || rate.Window <= 0 {
		return true, 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeCleanup(now)

	entry, ok := m.entries[key]
	if !ok || now.Sub(entry.windowStart) >= rate.Window {
		m.entries[key] = &memoryEntry{count: 1, windowStart: now}
		return true, 0, nil
	}

	if entry.count < rate.Requests {
		entry.count++
		return true, 0, nil
	}

	retry := rate.Window - now.Sub(entry.windowStart)
	return false, retry, nil
}

// maybeCleanup drops expired windows at most once per minute so the map
// does not grow without bound. Caller holds mu.
func (m *MemoryLimiter) maybeCleanup(now time.Time) {
	if now.Sub(m.lastCleanup) < time.Minute {
		return
	}
	m.lastCleanup = now
	for key, entry := range m.entries {
		if now.Sub(entry.windowStart) >= m.rateFor(key).Window {
			delete(m.entries, key)
		}
	}
}
