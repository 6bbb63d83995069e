package models

import "dms/src/types"

// Flat reference records: created once, listed, no lifecycle.

type Customer struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	CusName      string `json:"customer_name"`
	Aadhaar      string `json:"aadhaar"`
	AddCus       string `json:"customer_address"`
	EmailID      string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number"`
	Branch       string `gorm:"index" json:"branch"`
	HP           string `json:"hp,omitempty"`

	types.Timestamps
}

type Executive struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Branch string `gorm:"index" json:"branch"`

	types.Timestamps
}

type Location struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	Name string `gorm:"uniqueIndex" json:"name"`

	types.Timestamps
}
