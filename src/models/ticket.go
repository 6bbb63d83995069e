package models

import (
	"dms/src/types"
	"time"
)

// Ticket is one physical vehicle unit tracked from stock intake through
// delivery. Identifier is the opaque id exposed to clients; the chassis and
// engine numbers are globally unique across all stock.
type Ticket struct {
	ID         uint   `gorm:"primarykey" json:"-"`
	Identifier string `gorm:"uniqueIndex" json:"id"`
	ByUser     string `json:"by_user,omitempty"`

	Model    string `json:"model"`
	Variant  string `json:"variant"`
	Colour   string `json:"colour"`
	Location string `json:"location"`

	ChassisNo string `gorm:"uniqueIndex" json:"chassis_no"`
	EngineNo  string `gorm:"uniqueIndex" json:"engine_no"`

	Status         types.TicketStatus `gorm:"default:'open'" json:"status"`
	AssignedDealer string             `json:"assigned_dealer,omitempty"`

	// Allocation stage
	NameCus       string  `json:"customer_name,omitempty"`
	AddCus        string  `json:"customer_address,omitempty"`
	BookingAmount float64 `json:"booking_amount,omitempty"`
	Executive     string  `json:"executive,omitempty"`
	HP            string  `json:"hp,omitempty"`

	// Sale letter stage
	IssueAmount            float64 `json:"issue_amount,omitempty"`
	IssueFinance           string  `json:"issue_finance,omitempty"`
	IsApproved             bool    `json:"is_approved,omitempty"`
	SentForIssueSaleLetter bool    `json:"sent_for_issue_sale_letter,omitempty"`

	// Registration and delivery stages
	VehicleNumber        string  `json:"vehicle_number,omitempty"`
	GatePassSerialNumber string  `json:"gate_pass_serial_number,omitempty"`
	DeliveryAmount       float64 `json:"delivery_amount,omitempty"`

	AllocationDate   *time.Time `json:"allocation_date,omitempty"`
	ApprovedDate     *time.Time `json:"approved_date,omitempty"`
	PassingDate      *time.Time `json:"passing_date,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	DeliveryDate     *time.Time `json:"delivery_date,omitempty"`

	DealerHistory types.DealerHistory `gorm:"type:jsonb;default:'[]'" json:"dealer_history,omitempty"`
	Logs          types.LogTrail      `gorm:"type:jsonb;default:'[]'" json:"logs,omitempty"`

	types.Timestamps
}

// DeriveStatus computes the lifecycle status from the ticket's field state.
// Status is never accepted from a client for the passing, registration and
// delivery stages; every transition recomputes it through here.
func DeriveStatus(t *Ticket) types.TicketStatus {
	if t.GatePassSerialNumber != "" {
		if t.PassingDate != nil && t.RegistrationDate != nil && t.VehicleNumber != "" {
			return types.TICKET_DELIVERED_WITH_NUMBER
		}
		return types.TICKET_DELIVERED_WITHOUT_NUMBER
	}
	if t.IsApproved {
		return types.TICKET_SOLD_NOT_DELIVERED
	}
	if t.NameCus != "" {
		return types.TICKET_ALLOCATED
	}
	return types.TICKET_OPEN
}
