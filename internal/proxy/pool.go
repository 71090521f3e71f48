// Package proxy rotates browser sessions over a list of upstream proxies.
package proxy

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped.
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones that failed within the cooldown.
type Pool struct {
	mu       sync.Mutex
	proxies  []string
	next     int
	failedAt map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewPool returns a pool over proxies. cooldown <= 0 uses DefaultCooldown.
func NewPool(proxies []string, cooldown time.Duration) *Pool {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Pool{
		proxies:  append([]string(nil), proxies...),
		failedAt: make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Len is the number of configured proxies.
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy. When every proxy is cooling down it
// returns the one that failed longest ago. An empty pool returns "".
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.proxies)
	if n == 0 {
		return ""
	}

	oldest := -1
	for i := range n {
		idx := (p.next + i) % n
		addr := p.proxies[idx]
		at, failed := p.failedAt[addr]
		if failed && p.now().Sub(at) >= p.cooldown {
			delete(p.failedAt, addr)
			failed = false
		}
		if !failed {
			p.next = (idx + 1) % n
			return addr
		}
		if oldest < 0 || at.Before(p.failedAt[p.proxies[oldest]]) {
			oldest = idx
		}
	}

	p.next = (oldest + 1) % n
	return p.proxies[oldest]
}

// MarkFailed puts proxy into cooldown.
func (p *Pool) MarkFailed(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failedAt[proxy] = p.now()
}

// MarkHealthy ends any cooldown for proxy.
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failedAt, proxy)
}

// Healthy counts proxies not currently cooling down.
func (p *Pool) Healthy() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	healthy := 0
	for _, addr := range p.proxies {
		if at, ok := p.failedAt[addr]; !ok || p.now().Sub(at) >= p.cooldown {
			healthy++
		}
	}
	return healthy
}
