package resource

import (
	"sync"
)

// Gateway is a fairness barrier that stops new acquisitions from starting
// while some already-running acquisition is struggling to make progress.
//
// A Gateway is open until a [Pass] closes it, and reopens once every pass
// that closed it has left. The zero value is not usable; use [NewGateway].
type Gateway struct {
	mu      sync.Mutex
	cond    *sync.Cond
	closers int
}

// NewGateway returns an open gateway.
func NewGateway() *Gateway {
	gw := &Gateway{}
	gw.cond = sync.NewCond(&gw.mu)
	return gw
}

// Enter returns a pass through the gateway, blocking for as long as the
// gateway is closed.
func (gw *Gateway) Enter() *Pass {
	gw.mu.Lock()
	for gw.closers > 0 {
		gw.cond.Wait() // gw.mu is automatically unlocked while waiting, and then relocked before this returns
	}
	gw.mu.Unlock()
	return &Pass{gateway: gw}
}

// IsClosed reports whether at least one pass currently holds the gateway
// closed.
func (gw *Gateway) IsClosed() bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.closers > 0
}

// Pass represents one caller's passage through a [Gateway], from
// [Gateway.Enter] until [Pass.Leave].
//
// A Pass belongs to a single goroutine and is not safe for concurrent use.
type Pass struct {
	gateway *Gateway
	closed  bool
	left    bool
}

// Close closes the gateway to new entrants until this pass leaves. Closing
// the same pass more than once has no additional effect.
func (p *Pass) Close() {
	if p.closed || p.left {
		return
	}
	gw := p.gateway
	gw.mu.Lock()
	gw.closers++
	p.closed = true
	gw.mu.Unlock()
}

// Leave ends the passage. If this pass closed the gateway and was the last
// one holding it closed then the gateway reopens and all blocked entrants
// are released.
func (p *Pass) Leave() {
	if p.left {
		return
	}
	p.left = true
	if !p.closed {
		return
	}
	gw := p.gateway
	gw.mu.Lock()
	gw.closers--
	if gw.closers == 0 {
		gw.cond.Broadcast()
	}
	gw.mu.Unlock()
}
