package db

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidAmount is returned when a tip is logged with a zero or
// negative amount. Tips are validated at creation so the aggregation
// layer never sees a malformed row.
var ErrInvalidAmount = errors.New("tip amount must be greater than zero")

// CreateTip persists one tip for the given user. The database assigns
// the ID and the timestamp (gorm fills CreatedAt at insert), so the
// stored instant reflects persistence time, not the client clock.
func CreateTip(db *gorm.DB, userID uint, amount decimal.Decimal, attrs map[string]any) (Tip, error) {
	if !amount.IsPositive() {
		return Tip{}, ErrInvalidAmount
	}

	attributes := datatypes.JSONMap{}
	for k, v := range attrs {
		attributes[k] = v
	}

	tip := Tip{
		UserID:     userID,
		Amount:     amount,
		Attributes: attributes,
	}
	if err := db.Create(&tip).Error; err != nil {
		return Tip{}, err
	}
	return tip, nil
}

// TipsForUser returns the user's complete tip history, newest first.
// The descending order is a display convenience; aggregation is
// order-independent.
func TipsForUser(db *gorm.DB, userID uint) ([]Tip, error) {
	var tips []Tip
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tips).Error; err != nil {
		return nil, err
	}
	return tips, nil
}

// TipByID loads a single tip. Ownership checks are the caller's job.
func TipByID(db *gorm.DB, id uint) (Tip, error) {
	var tip Tip
	if err := db.First(&tip, id).Error; err != nil {
		return Tip{}, err
	}
	return tip, nil
}
