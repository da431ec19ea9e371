package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Tip represents a single logged gratuity. Rows are written once at
// logging time and never updated; the store assigns both the ID and
// the timestamp, so client clock drift cannot move a tip across the
// midnight boundary.
type Tip struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time `gorm:"index"`

	// UserID is the driver who logged this tip.
	UserID uint `gorm:"index;not null"`

	// Amount is the gratuity value in major currency units. Always
	// positive; enforced at creation. Stored as a SQL decimal so
	// aggregate totals are exact, never float-rounded.
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Attributes holds arbitrary key/value pairs for this tip, so the
	// client can attach context (e.g. platform, shift, note) without
	// schema changes.
	Attributes datatypes.JSONMap `gorm:"type:json"`
}
