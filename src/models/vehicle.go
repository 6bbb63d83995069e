package models

import "dms/src/types"

// Vehicle is a catalog entry identifying a sellable (model, variant, colour)
// combination. PriceLock is the minimum permitted booking or sale amount.
type Vehicle struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	Model   string `gorm:"uniqueIndex:idx_vehicle_tuple" json:"model"`
	Variant string `gorm:"uniqueIndex:idx_vehicle_tuple" json:"variant"`
	Colour  string `gorm:"uniqueIndex:idx_vehicle_tuple" json:"colour"`

	PriceLock float64 `json:"price_lock"`

	Logs types.LogTrail `gorm:"type:jsonb;default:'[]'" json:"logs,omitempty"`

	types.Timestamps
}
