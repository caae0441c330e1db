package gate

import (
	"context"
	"sync"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// Gate serializes ratchet work per peer device through two lock domains:
//
//   - incoming-order: wraps an entire live commit, so live traffic for one
//     peer device is processed one envelope at a time and never overtakes a
//     history batch. Backfilled envelopes skip it; the backfill loop is
//     already sequential and runs inside a live commit that holds it.
//   - state-access: wraps every individual decrypt-and-commit unit, live,
//     backfilled or outbound, guaranteeing one state mutation at a time.
//
// Acquisition order is always incoming-order before state-access. Entries
// are created lazily per key and reclaimed once nothing holds or waits on
// them.
type Gate struct {
	mu      sync.Mutex
	entries map[domain.PeerDevice]*entry
}

type entry struct {
	refs     int
	incoming chan struct{}
	state    chan struct{}
}

// New returns an empty Gate.
func New() *Gate {
	return &Gate{entries: make(map[domain.PeerDevice]*entry)}
}

// AcquireIncoming takes the incoming-order lock for key. The returned
// release function must be called exactly once, on every exit path.
func (g *Gate) AcquireIncoming(ctx context.Context, key domain.PeerDevice) (func(), error) {
	return g.acquire(ctx, key, func(e *entry) chan struct{} { return e.incoming })
}

// AcquireState takes the state-access lock for key.
func (g *Gate) AcquireState(ctx context.Context, key domain.PeerDevice) (func(), error) {
	return g.acquire(ctx, key, func(e *entry) chan struct{} { return e.state })
}

func (g *Gate) acquire(ctx context.Context, key domain.PeerDevice, sel func(*entry) chan struct{}) (func(), error) {
	g.mu.Lock()
	e, ok := g.entries[key]
	if !ok {
		e = &entry{
			incoming: make(chan struct{}, 1),
			state:    make(chan struct{}, 1),
		}
		g.entries[key] = e
	}
	e.refs++
	g.mu.Unlock()

	ch := sel(e)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		g.release(key, nil)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.release(key, ch) })
	}, nil
}

// release drops one reference and, if ch is non-nil, the held slot. The
// entry is reclaimed when the last reference goes away.
func (g *Gate) release(key domain.PeerDevice, ch chan struct{}) {
	if ch != nil {
		<-ch
	}
	g.mu.Lock()
	if e, ok := g.entries[key]; ok {
		e.refs--
		if e.refs <= 0 {
			delete(g.entries, key)
		}
	}
	g.mu.Unlock()
}

// Len reports how many keys currently have live entries.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
