// Package cache keeps computed reports in memory until the data behind them
// changes or they expire.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is what report services depend on; LRUCache is the only
// implementation.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry, used when the underlying data changed.
	Purge()
	Size() int
}

// Expirer is implemented by caches holding entries with a deadline.
type Expirer interface {
	CleanExpired() int
}

// Manager sweeps expired entries out of named caches on an interval.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Expirer
	stop   chan struct{}
	wg     sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{caches: make(map[string]Expirer)}
}

func (m *Manager) Register(name string, c Expirer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// StartCleanup starts the sweeper. Calling it again while running is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.sweep(interval, m.stop)
}

func (m *Manager) sweep(interval time.Duration, stop <-chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.CleanNow()
		}
	}
}

// CleanNow runs one sweep and returns the number of entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		if n := c.CleanExpired(); n > 0 {
			slog.Debug("Expired cache entries removed", "cache", name, "count", n)
			total += n
		}
	}
	return total
}

// Stop ends the sweeper and waits for it. Safe to call without StartCleanup
// and more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	m.wg.Wait()
}
