package resilience

import "sync"

// HostBreakers hands out one Breaker per host so a flapping origin trips
// only its own circuit. The zero opts fall back to DefaultBreakerOpts.
type HostBreakers struct {
	mu    sync.Mutex
	opts  BreakerOpts
	hosts map[string]*Breaker
}

// NewHostBreakers creates an empty per-host breaker registry.
func NewHostBreakers(opts BreakerOpts) *HostBreakers {
	return &HostBreakers{opts: opts, hosts: make(map[string]*Breaker)}
}

// For returns the breaker for host, creating it on first use.
func (h *HostBreakers) For(host string) *Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.hosts[host]
	if !ok {
		b = NewBreaker(h.opts)
		h.hosts[host] = b
	}
	return b
}
