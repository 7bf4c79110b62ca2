package fetcher

import "sync/atomic"

// DefaultUserAgents is the identity pool used when none is configured
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// identityPool hands out user agents round-robin
type identityPool struct {
	agents []string
	next   atomic.Uint64
}

func newIdentityPool(agents []string) *identityPool {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	return &identityPool{agents: append([]string(nil), agents...)}
}

func (p *identityPool) pick() string {
	n := p.next.Add(1) - 1
	return p.agents[n%uint64(len(p.agents))]
}
