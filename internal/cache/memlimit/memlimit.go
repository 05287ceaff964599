// Package memlimit is the in-process limiter used when Redis is not
// configured. Counters live in this process only and are lost on restart.
package memlimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// окно начинается с первого запроса и сбрасывается целиком, как в rediscache.
type entry struct {
	count  int64
	start  time.Time
	window time.Duration
}

type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*entry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// New starts a sweeper that drops elapsed windows every sweepEvery.
func New(sweepEvery time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go rl.cleanup(sweepEvery)
	}
	return rl
}

// Allow grants up to limit hits per fixed window. Возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(_ context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	if limit <= 0 {
		return false, 0, nil
	}
	now := rl.now()
	k := fmt.Sprintf("%s|%s", key, window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.windows[k]
	if !ok || now.Sub(e.start) >= e.window {
		e = &entry{start: now, window: window}
		rl.windows[k] = e
	}
	e.count++
	return e.count <= limit, e.count, nil
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, e := range rl.windows {
		if now.Sub(e.start) >= e.window {
			delete(rl.windows, k)
		}
	}
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}
