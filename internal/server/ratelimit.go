package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether a request from identifier may proceed.
type Limiter interface {
	Allow(identifier string) bool
}

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterPruneSize = 4096
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client identifier.
type ClientLimiter struct {
	rate    rate.Limit
	burst   int
	clients map[string]*clientLimiter
	mu      sync.Mutex
	now     func() time.Time
}

// NewClientLimiter allows r requests per second per client with bursts of b.
func NewClientLimiter(r rate.Limit, b int) *ClientLimiter {
	if b < 1 {
		b = 1
	}
	return &ClientLimiter{
		rate:    r,
		burst:   b,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (l *ClientLimiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= limiterPruneSize {
		l.prune(now)
	}

	c, ok := l.clients[identifier]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[identifier] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// prune drops clients idle for longer than limiterIdleTTL. Callers hold mu.
func (l *ClientLimiter) prune(now time.Time) {
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, id)
		}
	}
}

// Len reports the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
