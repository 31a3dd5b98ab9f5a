package proxy

import "sync"

// barrier calls fn once done has been called n times.
// With n <= 0, fn runs immediately.
type barrier struct {
	mu        sync.Mutex
	remaining int
	fn        func()
}

func newBarrier(n int, fn func()) *barrier {
	b := &barrier{remaining: n, fn: fn}
	if n <= 0 {
		fn()
	}
	return b
}

func (b *barrier) done() {
	b.mu.Lock()
	b.remaining--
	fire := b.remaining == 0
	b.mu.Unlock()
	if fire {
		b.fn()
	}
}
