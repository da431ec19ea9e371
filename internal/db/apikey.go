package db

import (
	"time"
)

// APIKey is a bearer token the driver's client app uses to log tips
// and read aggregates. Each key belongs to a user; Name doubles as the
// project label on exported Prometheus metrics.
type APIKey struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// UserID links this key to the user who owns it.
	UserID uint `gorm:"index;not null"`

	// Name is a user-friendly identifier for this key (e.g. "pixel-7").
	Name string `gorm:"size:128;not null"`

	// Environment indicates the deployment environment (prod, staging, dev).
	Environment string `gorm:"size:32;not null"`

	// Key is the actual bearer token value (stored as-is, should be unique).
	Key string `gorm:"uniqueIndex;size:255;not null"`

	// Active indicates whether this key is currently enabled.
	Active bool `gorm:"default:true"`

	// User is the owner of this API key.
	User User `gorm:"foreignKey:UserID"`
}
