// Package store adapts the tip database into the event-source shape the
// session layer consumes: full-snapshot delivery on change, plus a
// write path. Subscribers always receive the complete current tip set
// for a user, never deltas.
package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tipledger/internal/db"
)

// Update is one delivery to a subscriber: either a full snapshot of
// the user's tips or a fetch error. On error the tips slice is nil and
// the consumer is expected to keep its last known-good snapshot.
type Update struct {
	Tips []db.Tip
	Err  error
}

// Adapter wraps the database with snapshot subscriptions. Writes made
// through Create notify the writer's subscriptions immediately; a poll
// ticker picks up writes from other sessions.
type Adapter struct {
	db           *gorm.DB
	pollInterval time.Duration

	mu   sync.Mutex
	subs map[uint][]chan struct{}
}

func NewAdapter(gdb *gorm.DB, pollInterval time.Duration) *Adapter {
	return &Adapter{
		db:           gdb,
		pollInterval: pollInterval,
		subs:         make(map[uint][]chan struct{}),
	}
}

// Create persists one tip for the user and wakes that user's
// subscriptions. The store assigns the ID and the timestamp.
func (a *Adapter) Create(userID uint, amount decimal.Decimal, attrs map[string]any) (db.Tip, error) {
	tip, err := db.CreateTip(a.db, userID, amount, attrs)
	if err != nil {
		return db.Tip{}, err
	}
	a.notify(userID)
	return tip, nil
}

// Fetch returns the user's complete current tip set, newest first.
func (a *Adapter) Fetch(userID uint) ([]db.Tip, error) {
	return db.TipsForUser(a.db, userID)
}

// Subscription delivers snapshot updates for one user until cancelled.
type Subscription struct {
	C      <-chan Update
	cancel func()
	once   sync.Once
}

// NewSubscription wraps an update channel with a cancel hook. Exposed
// so the session layer can be exercised without a database.
func NewSubscription(c <-chan Update, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Cancel stops delivery and releases the subscription's goroutine.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Subscribe starts delivering full snapshots of the user's tips: one
// immediately, then one on every local write and on every poll tick.
// The channel has capacity one and stale snapshots are dropped in
// favor of newer ones, so a slow consumer never blocks delivery.
func (a *Adapter) Subscribe(userID uint) *Subscription {
	updates := make(chan Update, 1)
	notify := make(chan struct{}, 1)
	done := make(chan struct{})

	a.mu.Lock()
	a.subs[userID] = append(a.subs[userID], notify)
	a.mu.Unlock()

	go func() {
		defer close(updates)
		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()

		deliver := func() {
			tips, err := a.Fetch(userID)
			if err != nil {
				push(updates, Update{Err: err})
				return
			}
			push(updates, Update{Tips: tips})
		}

		deliver()
		for {
			select {
			case <-done:
				a.unsubscribe(userID, notify)
				return
			case <-notify:
				deliver()
			case <-ticker.C:
				deliver()
			}
		}
	}()

	return NewSubscription(updates, func() { close(done) })
}

// push replaces any undelivered update with the newer one.
func push(updates chan Update, u Update) {
	for {
		select {
		case updates <- u:
			return
		default:
			select {
			case <-updates:
			default:
			}
		}
	}
}

func (a *Adapter) notify(userID uint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (a *Adapter) unsubscribe(userID uint, notify chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	chans := a.subs[userID]
	for i, ch := range chans {
		if ch == notify {
			a.subs[userID] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(a.subs[userID]) == 0 {
		delete(a.subs, userID)
	}
}
