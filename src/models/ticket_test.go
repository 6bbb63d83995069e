package models

import (
	"dms/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	date := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

	t.Run("fresh stock is open", func(t *testing.T) {
		assert.Equal(t, types.TICKET_OPEN, DeriveStatus(&Ticket{}))
	})

	t.Run("customer details make it allocated", func(t *testing.T) {
		ticket := Ticket{NameCus: "R. Sharma"}
		assert.Equal(t, types.TICKET_ALLOCATED, DeriveStatus(&ticket))
	})

	t.Run("approved sale letter makes it soldButNotDelivered", func(t *testing.T) {
		ticket := Ticket{NameCus: "R. Sharma", IsApproved: true}
		assert.Equal(t, types.TICKET_SOLD_NOT_DELIVERED, DeriveStatus(&ticket))
	})

	t.Run("unapproved sale letter stays allocated", func(t *testing.T) {
		ticket := Ticket{NameCus: "R. Sharma", SentForIssueSaleLetter: true}
		assert.Equal(t, types.TICKET_ALLOCATED, DeriveStatus(&ticket))
	})

	t.Run("gate pass without registration is deliveredWithoutNumber", func(t *testing.T) {
		ticket := Ticket{
			NameCus:              "R. Sharma",
			IsApproved:           true,
			GatePassSerialNumber: "M/25-26/0001",
		}
		assert.Equal(t, types.TICKET_DELIVERED_WITHOUT_NUMBER, DeriveStatus(&ticket))
	})

	t.Run("gate pass with passing only is still deliveredWithoutNumber", func(t *testing.T) {
		ticket := Ticket{
			NameCus:              "R. Sharma",
			IsApproved:           true,
			GatePassSerialNumber: "M/25-26/0001",
			PassingDate:          &date,
		}
		assert.Equal(t, types.TICKET_DELIVERED_WITHOUT_NUMBER, DeriveStatus(&ticket))
	})

	t.Run("full paperwork is deliveredWithNumber", func(t *testing.T) {
		ticket := Ticket{
			NameCus:              "R. Sharma",
			IsApproved:           true,
			GatePassSerialNumber: "M/25-26/0001",
			PassingDate:          &date,
			RegistrationDate:     &date,
			VehicleNumber:        "MH04AB1234",
		}
		assert.Equal(t, types.TICKET_DELIVERED_WITH_NUMBER, DeriveStatus(&ticket))
	})

	t.Run("clearing stage fields goes back to open", func(t *testing.T) {
		ticket := Ticket{
			NameCus:              "R. Sharma",
			IsApproved:           true,
			GatePassSerialNumber: "M/25-26/0001",
		}
		ticket.NameCus = ""
		ticket.IsApproved = false
		ticket.GatePassSerialNumber = ""
		assert.Equal(t, types.TICKET_OPEN, DeriveStatus(&ticket))
	})
}
