package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type TicketStatus string

const (
	TICKET_OPEN                     TicketStatus = "open"
	TICKET_ALLOCATED                TicketStatus = "allocated"
	TICKET_SOLD_NOT_DELIVERED       TicketStatus = "soldButNotDelivered"
	TICKET_DELIVERED_WITHOUT_NUMBER TicketStatus = "deliveredWithoutNumber"
	TICKET_DELIVERED_WITH_NUMBER    TicketStatus = "deliveredWithNumber"
)

type Role string

const (
	ROLE_ADMIN  Role = "admin"
	ROLE_OWNER  Role = "owner"
	ROLE_DEALER Role = "dealer"
	ROLE_STAFF  Role = "staff"
)

// Privileged reports whether the role bypasses permission-derived
// ticket visibility filters.
func (r Role) Privileged() bool {
	return r == ROLE_ADMIN || r == ROLE_OWNER || r == ROLE_DEALER
}

type Permission string

const (
	PERM_UPLOAD_STOCK         Permission = "upload_stock"
	PERM_ALLOCATION_DETAILS   Permission = "allocation_details"
	PERM_ISSUE_SALE_LETTER    Permission = "issue_sale_letter"
	PERM_PASSING_DETAILS      Permission = "passing_details"
	PERM_REGISTRATION_DETAILS Permission = "registration_details"
	PERM_DELIVERY_REPORT      Permission = "delivery_report"
	PERM_ALL_ACCESS           Permission = "all_access"
)

type Permissions []Permission

func (p Permissions) Value() (driver.Value, error) {
	valueString, err := json.Marshal(p)
	return string(valueString), err
}
func (p *Permissions) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, p)
}

func (p Permissions) Has(perm Permission) bool {
	for _, held := range p {
		if held == perm || held == PERM_ALL_ACCESS {
			return true
		}
	}
	return false
}

// DealerTransfer is one entry of a ticket's dealer reassignment trail.
// FromDealer is empty on the first assignment.
type DealerTransfer struct {
	FromDealer string    `json:"from_dealer,omitempty"`
	ToDealer   string    `json:"to_dealer"`
	Timestamp  time.Time `json:"timestamp"`
}

type DealerHistory []DealerTransfer

func (h DealerHistory) Value() (driver.Value, error) {
	valueString, err := json.Marshal(h)
	return string(valueString), err
}
func (h *DealerHistory) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, h)
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
}

type LogTrail []LogEntry

func (t LogTrail) Value() (driver.Value, error) {
	valueString, err := json.Marshal(t)
	return string(valueString), err
}
func (t *LogTrail) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, t)
}

type RegisterUserRequestBody struct {
	Name     string      `json:"name" binding:"required"`
	Password string      `json:"password" binding:"required,min=8"`
	Email    string      `json:"email,omitempty"`
	Phone    string      `json:"phone,omitempty"`
	Role     Role        `json:"role,omitempty"`
	Branch   string      `json:"branch,omitempty"`
	Perms    Permissions `json:"permissions,omitempty"`
}

type LoginRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequestBody struct {
	Name        string `json:"name" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type CreateTicketRequestBody struct {
	Model          string `json:"model" binding:"required"`
	Variant        string `json:"variant" binding:"required"`
	Colour         string `json:"colour" binding:"required"`
	ChassisNo      string `json:"chassis_no" binding:"required"`
	EngineNo       string `json:"engine_no" binding:"required"`
	Location       string `json:"location" binding:"required"`
	AssignedDealer string `json:"assigned_dealer,omitempty"`
}

// BulkTicketRow is one spreadsheet row of a stock upload. PriceLock is only
// consulted when the referenced vehicle catalog entry does not exist yet.
type BulkTicketRow struct {
	Model     string  `json:"model" binding:"required"`
	Variant   string  `json:"variant" binding:"required"`
	Colour    string  `json:"colour" binding:"required"`
	ChassisNo string  `json:"chassis_no" binding:"required"`
	EngineNo  string  `json:"engine_no" binding:"required"`
	Location  string  `json:"location" binding:"required"`
	PriceLock float64 `json:"price_lock,omitempty"`
}

type BulkTicketsRequestBody struct {
	Rows []BulkTicketRow `json:"rows" binding:"required,min=1,dive"`
}

type AllocateTicketRequestBody struct {
	Model         string  `json:"model" binding:"required"`
	Variant       string  `json:"variant" binding:"required"`
	Colour        string  `json:"colour" binding:"required"`
	ChassisNo     string  `json:"chassis_no" binding:"required"`
	EngineNo      string  `json:"engine_no" binding:"required"`
	NameCus       string  `json:"customer_name" binding:"required"`
	AddCus        string  `json:"customer_address" binding:"required"`
	BookingAmount float64 `json:"booking_amount" binding:"required,gt=0"`
	Executive     string  `json:"executive" binding:"required"`
	HP            string  `json:"hp" binding:"required"`
}

type IssueSaleLetterRequestBody struct {
	IssueAmount  float64 `json:"issue_amount" binding:"required,gt=0"`
	IssueFinance string  `json:"issue_finance,omitempty"`
	IsApproved   bool    `json:"is_approved,omitempty"`
}

type PassingDateRequestBody struct {
	PassingDate string `json:"passing_date" binding:"required,ticketdate"`
}

type RegistrationDetailsRequestBody struct {
	RegistrationDate string `json:"registration_date" binding:"required,ticketdate"`
	VehicleNumber    string `json:"vehicle_number" binding:"required"`
}

type GatePassRequestBody struct {
	DeliveryAmount float64 `json:"delivery_amount" binding:"required,gt=0"`
}

type AssignDealerRequestBody struct {
	DealerID string `json:"dealer_id" binding:"required"`
}

type AddMessageRequestBody struct {
	Message string `json:"message" binding:"required"`
}

type CreateBookingRequestBody struct {
	CusName       string  `json:"customer_name" binding:"required"`
	Aadhaar       string  `json:"aadhaar" binding:"required"`
	AddCus        string  `json:"customer_address" binding:"required"`
	Model         string  `json:"model" binding:"required"`
	Variant       string  `json:"variant" binding:"required"`
	Colour        string  `json:"colour" binding:"required"`
	Executive     string  `json:"executive" binding:"required"`
	Branch        string  `json:"branch" binding:"required"`
	BookingAmount float64 `json:"booking_amount" binding:"required,gt=0"`
	HP            string  `json:"hp" binding:"required"`
	EmailID       string  `json:"email,omitempty"`
	MobileNumber  string  `json:"mobile_number" binding:"required"`
}

type CreateVehicleRequestBody struct {
	Model     string  `json:"model" binding:"required"`
	Variant   string  `json:"variant" binding:"required"`
	Colour    string  `json:"colour" binding:"required"`
	PriceLock float64 `json:"price_lock" binding:"required,gt=0"`
}

type BulkVehiclesRequestBody struct {
	Vehicles []CreateVehicleRequestBody `json:"vehicles" binding:"required,min=1,dive"`
}

type UpdateVehiclePriceRequestBody struct {
	Model     string   `json:"model" binding:"required"`
	Variant   string   `json:"variant" binding:"required"`
	Colours   []string `json:"colours,omitempty"`
	PriceLock float64  `json:"price_lock" binding:"required,gt=0"`
}

type CreateCustomerRequestBody struct {
	CusName      string `json:"customer_name" binding:"required"`
	Aadhaar      string `json:"aadhaar" binding:"required"`
	AddCus       string `json:"customer_address" binding:"required"`
	EmailID      string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number" binding:"required"`
	Branch       string `json:"branch" binding:"required"`
	HP           string `json:"hp,omitempty"`
}

type CreateExecutiveRequestBody struct {
	Name   string `json:"name" binding:"required"`
	Phone  string `json:"phone" binding:"required"`
	Branch string `json:"branch" binding:"required"`
}

type CreateLocationRequestBody struct {
	Name string `json:"name" binding:"required"`
}

type AssignRoleRequestBody struct {
	Name string `json:"name" binding:"required"`
	Role Role   `json:"role" binding:"required"`
}

type TicketIDRequestParams struct {
	TicketID string `uri:"ticket_id" binding:"required"`
}

// BulkResult reports per-item outcomes of a batch operation. A batch is
// never all-or-nothing: rows that fail leave the rest untouched.
type BulkResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
