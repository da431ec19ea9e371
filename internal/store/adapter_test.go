package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tipledger/internal/db"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestCreateRejectsNonPositiveAmounts(t *testing.T) {
	a := NewAdapter(testDB(t), time.Minute)

	_, err := a.Create(1, decimal.Zero, nil)
	assert.ErrorIs(t, err, db.ErrInvalidAmount)

	_, err = a.Create(1, decimal.RequireFromString("-3.50"), nil)
	assert.ErrorIs(t, err, db.ErrInvalidAmount)

	tip, err := a.Create(1, decimal.RequireFromString("3.50"), map[string]any{"platform": "rideshare"})
	require.NoError(t, err)
	assert.NotZero(t, tip.ID)
	assert.False(t, tip.CreatedAt.IsZero(), "store assigns the timestamp")
}

func TestFetchReturnsNewestFirst(t *testing.T) {
	gdb := testDB(t)
	a := NewAdapter(gdb, time.Minute)

	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	for i, amount := range []string{"1.00", "2.00", "3.00"} {
		require.NoError(t, gdb.Create(&db.Tip{
			UserID:    1,
			Amount:    decimal.RequireFromString(amount),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	// Another user's tips never leak into the snapshot.
	require.NoError(t, gdb.Create(&db.Tip{UserID: 2, Amount: decimal.NewFromInt(99), CreatedAt: base}).Error)

	tips, err := a.Fetch(1)
	require.NoError(t, err)
	require.Len(t, tips, 3)
	assert.Equal(t, "3.00", tips[0].Amount.StringFixed(2))
	assert.Equal(t, "1.00", tips[2].Amount.StringFixed(2))
}

func receiveSnapshot(t *testing.T, sub *Subscription, cond func(Update) bool) Update {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-sub.C:
			require.True(t, ok, "subscription closed before condition met")
			if cond(u) {
				return u
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	a := NewAdapter(testDB(t), time.Minute)

	_, err := a.Create(1, decimal.RequireFromString("5.00"), nil)
	require.NoError(t, err)

	sub := a.Subscribe(1)
	defer sub.Cancel()

	// Initial snapshot arrives without any write.
	u := receiveSnapshot(t, sub, func(u Update) bool { return u.Err == nil })
	assert.Len(t, u.Tips, 1)

	// A local write triggers a fresh full snapshot, not a delta.
	_, err = a.Create(1, decimal.RequireFromString("7.50"), nil)
	require.NoError(t, err)

	u = receiveSnapshot(t, sub, func(u Update) bool { return u.Err == nil && len(u.Tips) == 2 })
	assert.Len(t, u.Tips, 2)
}

func TestSubscribePollPicksUpForeignWrites(t *testing.T) {
	gdb := testDB(t)
	a := NewAdapter(gdb, 20*time.Millisecond)

	sub := a.Subscribe(1)
	defer sub.Cancel()

	receiveSnapshot(t, sub, func(u Update) bool { return u.Err == nil && len(u.Tips) == 0 })

	// Write behind the adapter's back; only the poll ticker can see it.
	require.NoError(t, gdb.Create(&db.Tip{UserID: 1, Amount: decimal.NewFromInt(4)}).Error)

	receiveSnapshot(t, sub, func(u Update) bool { return u.Err == nil && len(u.Tips) == 1 })
}

func TestCancelStopsDelivery(t *testing.T) {
	a := NewAdapter(testDB(t), 10*time.Millisecond)

	sub := a.Subscribe(1)
	receiveSnapshot(t, sub, func(u Update) bool { return true })
	sub.Cancel()
	sub.Cancel() // idempotent

	require.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.subs) == 0
	}, 2*time.Second, 5*time.Millisecond)
}
