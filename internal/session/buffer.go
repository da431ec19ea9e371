// Package session holds the per-user in-memory tip buffers that back
// all aggregation reads. Each buffer mirrors the most recent snapshot
// delivered by its store subscription and is replaced wholesale on
// every update, so concurrent readers never observe a partial state.
package session

import (
	"sync/atomic"

	"tipledger/internal/db"
	"tipledger/internal/store"
)

type state struct {
	tips    []db.Tip
	syncErr error
}

// Buffer is the complete, in-memory tip set for one user, kept current
// by a store subscription. A failed fetch leaves the last known-good
// tips in place and records the error alongside them; callers surface
// the error next to the stale data rather than instead of it.
type Buffer struct {
	sub *store.Subscription
	cur atomic.Value // state
}

// NewBuffer consumes updates from sub until the buffer is closed.
func NewBuffer(sub *store.Subscription) *Buffer {
	b := &Buffer{sub: sub}
	b.cur.Store(state{tips: []db.Tip{}})

	go func() {
		for u := range sub.C {
			if u.Err != nil {
				prev := b.cur.Load().(state)
				b.cur.Store(state{tips: prev.tips, syncErr: u.Err})
				continue
			}
			b.cur.Store(state{tips: u.Tips})
		}
	}()

	return b
}

// Snapshot returns the current tip set and, if the most recent sync
// attempt failed, the error. The returned slice must be treated as
// read-only; it is shared with other readers of the same snapshot.
func (b *Buffer) Snapshot() ([]db.Tip, error) {
	s := b.cur.Load().(state)
	return s.tips, s.syncErr
}

// Close cancels the underlying subscription so no further updates are
// delivered once the session ends.
func (b *Buffer) Close() {
	b.sub.Cancel()
}
