package models

import "dms/src/types"

// Booking is a customer's reservation against a (model, variant, colour)
// before a stock unit is allocated. Immutable once created except for the
// append-only log trail.
type Booking struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	CusName string `json:"customer_name"`
	Aadhaar string `gorm:"index" json:"aadhaar"`
	AddCus  string `json:"customer_address"`

	Model   string `json:"model"`
	Variant string `json:"variant"`
	Colour  string `json:"colour"`

	BookingAmount float64 `json:"booking_amount"`
	Executive     string  `json:"executive"`
	Branch        string  `json:"branch"`
	HP            string  `json:"hp"`
	EmailID       string  `json:"email,omitempty"`
	MobileNumber  string  `json:"mobile_number"`

	Logs types.LogTrail `gorm:"type:jsonb;default:'[]'" json:"logs,omitempty"`

	types.Timestamps
}
