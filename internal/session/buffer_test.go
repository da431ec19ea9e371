package session

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipledger/internal/db"
	"tipledger/internal/store"
)

func testTips(n int) []db.Tip {
	tips := make([]db.Tip, 0, n)
	for i := 0; i < n; i++ {
		tips = append(tips, db.Tip{
			ID:        uint(i + 1),
			Amount:    decimal.NewFromInt(int64(i + 1)),
			CreatedAt: time.Date(2024, 3, 4, 9, i, 0, 0, time.UTC),
		})
	}
	return tips
}

func waitFor(t *testing.T, b *Buffer, cond func(tips []db.Tip, err error) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		tips, err := b.Snapshot()
		return cond(tips, err)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBufferReplacesSnapshotWholesale(t *testing.T) {
	updates := make(chan store.Update, 1)
	b := NewBuffer(store.NewSubscription(updates, func() { close(updates) }))
	defer b.Close()

	tips, err := b.Snapshot()
	assert.NoError(t, err)
	assert.Empty(t, tips)

	updates <- store.Update{Tips: testTips(2)}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return len(tips) == 2 && err == nil })

	updates <- store.Update{Tips: testTips(5)}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return len(tips) == 5 && err == nil })
}

func TestBufferKeepsLastGoodOnSyncError(t *testing.T) {
	updates := make(chan store.Update, 1)
	b := NewBuffer(store.NewSubscription(updates, func() { close(updates) }))
	defer b.Close()

	updates <- store.Update{Tips: testTips(3)}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return len(tips) == 3 })

	syncErr := errors.New("connection reset")
	updates <- store.Update{Err: syncErr}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return err != nil })

	// Stale data is surfaced alongside the error, not replaced by it.
	tips, err := b.Snapshot()
	assert.Len(t, tips, 3)
	assert.ErrorIs(t, err, syncErr)

	// The next good snapshot clears the error.
	updates <- store.Update{Tips: testTips(4)}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return len(tips) == 4 && err == nil })
}

func TestBufferErrorBeforeFirstSnapshot(t *testing.T) {
	updates := make(chan store.Update, 1)
	b := NewBuffer(store.NewSubscription(updates, func() { close(updates) }))
	defer b.Close()

	updates <- store.Update{Err: errors.New("boom")}
	waitFor(t, b, func(tips []db.Tip, err error) bool { return err != nil && len(tips) == 0 })
}

func TestBufferCloseCancelsSubscription(t *testing.T) {
	updates := make(chan store.Update, 1)
	cancelled := false
	b := NewBuffer(store.NewSubscription(updates, func() {
		cancelled = true
		close(updates)
	}))

	b.Close()
	assert.True(t, cancelled)
	// Cancel is idempotent.
	b.Close()
}

func TestManagerReusesAndReleasesBuffers(t *testing.T) {
	// A manager over a nil adapter would subscribe for real; exercise
	// only the bookkeeping through a buffer registered by hand.
	m := NewManager(nil)

	updates := make(chan store.Update, 1)
	cancelled := false
	b := NewBuffer(store.NewSubscription(updates, func() {
		cancelled = true
		close(updates)
	}))
	m.buffers[7] = b

	assert.Same(t, b, m.Buffer(7))

	m.Release(7)
	assert.True(t, cancelled)

	// Releasing an unknown user is a no-op.
	m.Release(99)
}
