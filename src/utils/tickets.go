package utils

import (
	"context"
	"dms/src/db"
	"dms/src/lib"
	"dms/src/models"
	"dms/src/types"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// GetTicket loads one ticket by its opaque identifier.
func GetTicket(identifier string) (*models.Ticket, error) {
	var ticket models.Ticket
	conn := db.GetDb()
	if err := conn.
		Where(&models.Ticket{Identifier: identifier}).
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, identifier)
		}
		return nil, err
	}
	return &ticket, nil
}

// applyTicketUpdate writes the mutated fields of a ticket, conditioned on the
// revision read at the start of the transition. A concurrent writer bumping
// updated_at in between surfaces as ErrStaleRecord instead of a lost update.
func applyTicketUpdate(tx *gorm.DB, ticket *models.Ticket, readAt time.Time, patch map[string]any) error {
	res := tx.
		Model(&models.Ticket{}).
		Where("identifier = ? AND updated_at = ?", ticket.Identifier, readAt).
		Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ticket %s", ErrStaleRecord, ticket.Identifier)
	}
	return nil
}

// AllocateTicket binds an open stock unit to a customer booking
// (open -> allocated). The unit is matched on the full
// (model, variant, colour, chassis, engine) tuple and the booking amount is
// checked against the catalog price floor.
func AllocateTicket(params *types.AllocateTicketRequestBody) (*models.Ticket, error) {
	var ticket models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		var vehicle models.Vehicle
		if err := tx.
			Where(&models.Vehicle{Model: params.Model, Variant: params.Variant, Colour: params.Colour}).
			First(&vehicle).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no vehicle for %s %s %s", ErrNotFound, params.Model, params.Variant, params.Colour)
			}
			return err
		}
		if params.BookingAmount < vehicle.PriceLock {
			return fmt.Errorf("%w: booking amount must be at least %.2f", ErrPrecondition, vehicle.PriceLock)
		}

		if err := tx.
			Where(&models.Ticket{ChassisNo: params.ChassisNo, EngineNo: params.EngineNo}).
			First(&ticket).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no stock unit with chassis %s", ErrNotFound, params.ChassisNo)
			}
			return err
		}
		if ticket.Status != types.TICKET_OPEN {
			return fmt.Errorf("%w: stock unit %s is not open", ErrPrecondition, ticket.Identifier)
		}
		if ticket.Model != params.Model || ticket.Variant != params.Variant || ticket.Colour != params.Colour {
			return fmt.Errorf("%w: stock unit %s does not match %s %s %s", ErrPrecondition, ticket.Identifier, params.Model, params.Variant, params.Colour)
		}

		readAt := ticket.UpdatedAt
		now := time.Now()
		ticket.NameCus = params.NameCus
		ticket.AddCus = params.AddCus
		ticket.BookingAmount = params.BookingAmount
		ticket.Executive = params.Executive
		ticket.HP = params.HP
		ticket.AllocationDate = &now
		ticket.Status = models.DeriveStatus(&ticket)

		return applyTicketUpdate(tx, &ticket, readAt, map[string]any{
			"name_cus":        ticket.NameCus,
			"add_cus":         ticket.AddCus,
			"booking_amount":  ticket.BookingAmount,
			"executive":       ticket.Executive,
			"hp":              ticket.HP,
			"allocation_date": ticket.AllocationDate,
			"status":          ticket.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// IssueSaleLetter records the sale letter stage on an allocated ticket. The
// issue amount may not undercut the booking amount. Toggling approval on
// stamps the approval date; once approved the ticket derives to
// soldButNotDelivered, otherwise it stays allocated.
func IssueSaleLetter(identifier string, params *types.IssueSaleLetterRequestBody) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		if t.Status != types.TICKET_ALLOCATED {
			return fmt.Errorf("%w: ticket %s is not allocated", ErrPrecondition, identifier)
		}
		if params.IssueAmount < t.BookingAmount {
			return fmt.Errorf("%w: issue amount cannot be lower than %.2f", ErrPrecondition, t.BookingAmount)
		}

		readAt := t.UpdatedAt
		t.IssueAmount = params.IssueAmount
		t.IssueFinance = params.IssueFinance
		t.SentForIssueSaleLetter = true
		if params.IsApproved && !t.IsApproved {
			now := time.Now()
			t.ApprovedDate = &now
		}
		if !params.IsApproved {
			t.ApprovedDate = nil
		}
		t.IsApproved = params.IsApproved
		t.Status = models.DeriveStatus(t)

		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"issue_amount":               t.IssueAmount,
			"issue_finance":              t.IssueFinance,
			"sent_for_issue_sale_letter": t.SentForIssueSaleLetter,
			"is_approved":                t.IsApproved,
			"approved_date":              t.ApprovedDate,
			"status":                     t.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// RecordPassingDate stamps the RTO passing date. No guard of its own, but
// registration depends on it downstream.
func RecordPassingDate(identifier string, passingDate time.Time) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		readAt := t.UpdatedAt
		t.PassingDate = &passingDate
		t.Status = models.DeriveStatus(t)
		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"passing_date": t.PassingDate,
			"status":       t.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// SetRegistrationDetails records the registration date and plate number.
// Rejected outright while the passing date is unset.
func SetRegistrationDetails(identifier string, registrationDate time.Time, vehicleNumber string) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		if t.PassingDate == nil {
			return fmt.Errorf("%w: registration details require the passing date to be set first", ErrPrecondition)
		}
		readAt := t.UpdatedAt
		t.RegistrationDate = &registrationDate
		t.VehicleNumber = vehicleNumber
		t.Status = models.DeriveStatus(t)
		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"registration_date": t.RegistrationDate,
			"vehicle_number":    t.VehicleNumber,
			"status":            t.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// IssueGatePass assigns the next gate-pass serial for the ticket's location
// and records the delivery amount. The derived status is deliveredWithNumber
// only when passing, registration and plate number are all present.
func IssueGatePass(identifier string, params *types.GatePassRequestBody) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		if t.GatePassSerialNumber != "" {
			return fmt.Errorf("%w: gate pass %s already issued", ErrPrecondition, t.GatePassSerialNumber)
		}
		now := time.Now()
		serial, err := NextGatePassSerial(tx, t.Location, now)
		if err != nil {
			return err
		}
		readAt := t.UpdatedAt
		t.GatePassSerialNumber = serial
		t.DeliveryAmount = params.DeliveryAmount
		t.DeliveryDate = &now
		t.Status = models.DeriveStatus(t)
		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"gate_pass_serial_number": t.GatePassSerialNumber,
			"delivery_amount":         t.DeliveryAmount,
			"delivery_date":           t.DeliveryDate,
			"status":                  t.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	lib.CacheGatePassSerial(context.Background(), ticket.Location, ticket.GatePassSerialNumber)
	return ticket, nil
}

// AssignDealer reassigns the ticket's dealer and appends to the transfer
// trail. Reassigning to the current dealer is an error, not a silent no-op,
// and must not grow the trail.
func AssignDealer(identifier, dealerID string) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		if t.AssignedDealer == dealerID {
			return fmt.Errorf("%w: dealer is already assigned to this ticket", ErrPrecondition)
		}
		readAt := t.UpdatedAt
		t.DealerHistory = append(t.DealerHistory, types.DealerTransfer{
			FromDealer: t.AssignedDealer,
			ToDealer:   dealerID,
			Timestamp:  time.Now(),
		})
		t.AssignedDealer = dealerID
		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"assigned_dealer": t.AssignedDealer,
			"dealer_history":  t.DealerHistory,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// AddTicketLog appends a message to the ticket's audit trail. Fails only
// when the ticket is missing.
func AddTicketLog(identifier string, role types.Role, message string) error {
	conn := db.GetDb()
	return conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		readAt := t.UpdatedAt
		t.Logs = append(t.Logs, types.LogEntry{
			Timestamp: time.Now(),
			Role:      role,
			Message:   message,
		})
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"logs": t.Logs,
		})
	})
}

// ResetTicket clears every stage field and returns the unit to open stock.
// Admin-only escape hatch; the audit trails stay intact.
func ResetTicket(identifier string) (*models.Ticket, error) {
	var ticket *models.Ticket
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		t, err := getTicketTx(tx, identifier)
		if err != nil {
			return err
		}
		readAt := t.UpdatedAt
		t.NameCus = ""
		t.AddCus = ""
		t.BookingAmount = 0
		t.Executive = ""
		t.HP = ""
		t.IssueAmount = 0
		t.IssueFinance = ""
		t.IsApproved = false
		t.SentForIssueSaleLetter = false
		t.VehicleNumber = ""
		t.GatePassSerialNumber = ""
		t.DeliveryAmount = 0
		t.AllocationDate = nil
		t.ApprovedDate = nil
		t.PassingDate = nil
		t.RegistrationDate = nil
		t.DeliveryDate = nil
		t.Status = models.DeriveStatus(t)
		ticket = t
		return applyTicketUpdate(tx, t, readAt, map[string]any{
			"name_cus":                   "",
			"add_cus":                    "",
			"booking_amount":             0,
			"executive":                  "",
			"hp":                         "",
			"issue_amount":               0,
			"issue_finance":              "",
			"is_approved":                false,
			"sent_for_issue_sale_letter": false,
			"vehicle_number":             "",
			"gate_pass_serial_number":    "",
			"delivery_amount":            0,
			"allocation_date":            nil,
			"approved_date":              nil,
			"passing_date":               nil,
			"registration_date":          nil,
			"delivery_date":              nil,
			"status":                     t.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// DeleteTicket removes a ticket for good. Not reversible.
func DeleteTicket(identifier string) error {
	conn := db.GetDb()
	res := conn.
		Unscoped().
		Where(&models.Ticket{Identifier: identifier}).
		Delete(&models.Ticket{})
	if res.Error != nil {
		log.Printf("Error deleting ticket %s: %s\n", identifier, res.Error.Error())
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ticket %s", ErrNotFound, identifier)
	}
	return nil
}

func getTicketTx(tx *gorm.DB, identifier string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := tx.
		Where(&models.Ticket{Identifier: identifier}).
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, identifier)
		}
		return nil, err
	}
	return &ticket, nil
}
