package lib

import (
	"dms/src/models"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

func cellDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// BuildStockWorkbook renders tickets, bookings and vehicles into the
// four-sheet spreadsheet the showrooms exchange (Stock, Booking, Vehicle,
// Allotment). Callers pass the already-filtered record sets; no further
// scoping happens here.
func BuildStockWorkbook(tickets []models.Ticket, bookings []models.Booking, vehicles []models.Vehicle) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(defaultSheet, "Stock"); err != nil {
		return nil, err
	}
	stockHeaders := []any{"Model", "Variant", "Colour", "ChassisNumber", "EngineNumber", "Dealer", "Location", "StockInwardDate", "CustomerName", "BookingAmount", "IssueAmount", "DateOfPassing", "RegistrationDate", "GatePassSerial", "DeliveryAmount", "Status"}
	if err := f.SetSheetRow("Stock", "A1", &stockHeaders); err != nil {
		return nil, err
	}
	for i, t := range tickets {
		row := []any{
			t.Model, t.Variant, t.Colour, t.ChassisNo, t.EngineNo,
			t.AssignedDealer, t.Location, t.CreatedAt.Format("02/01/2006"),
			t.NameCus, t.BookingAmount, t.IssueAmount,
			cellDate(t.PassingDate), cellDate(t.RegistrationDate),
			t.GatePassSerialNumber, t.DeliveryAmount, string(t.Status),
		}
		if err := f.SetSheetRow("Stock", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Booking"); err != nil {
		return nil, err
	}
	bookingHeaders := []any{"DateOfBooking", "Aadhaar", "CustomerName", "Model", "Variant", "Colour", "BookingAmount", "Executive", "Branch"}
	if err := f.SetSheetRow("Booking", "A1", &bookingHeaders); err != nil {
		return nil, err
	}
	for i, b := range bookings {
		row := []any{
			b.CreatedAt.Format("02/01/2006"), b.Aadhaar, b.CusName,
			b.Model, b.Variant, b.Colour, b.BookingAmount, b.Executive, b.Branch,
		}
		if err := f.SetSheetRow("Booking", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Vehicle"); err != nil {
		return nil, err
	}
	vehicleHeaders := []any{"Model", "Variant", "Colour", "PriceLock"}
	if err := f.SetSheetRow("Vehicle", "A1", &vehicleHeaders); err != nil {
		return nil, err
	}
	for i, v := range vehicles {
		row := []any{v.Model, v.Variant, v.Colour, v.PriceLock}
		if err := f.SetSheetRow("Vehicle", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet("Allotment"); err != nil {
		return nil, err
	}
	allotmentHeaders := []any{"Model", "Colour", "ChassisNumber", "EngineNumber", "Dealer", "AllotmentDate", "CustomerName"}
	if err := f.SetSheetRow("Allotment", "A1", &allotmentHeaders); err != nil {
		return nil, err
	}
	row := 2
	for _, t := range tickets {
		if t.AllocationDate == nil {
			continue
		}
		values := []any{t.Model, t.Colour, t.ChassisNo, t.EngineNo, t.AssignedDealer, cellDate(t.AllocationDate), t.NameCus}
		if err := f.SetSheetRow("Allotment", fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		row++
	}

	return f, nil
}

// BuildBulkUploadTemplate produces the empty header-row workbook handed to
// showrooms for stock uploads.
func BuildBulkUploadTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, "Bulk_Upload_Template"); err != nil {
		return nil, err
	}
	headers := []any{"model", "variant", "colour", "chassisNo", "engineNo", "location"}
	if err := f.SetSheetRow("Bulk_Upload_Template", "A1", &headers); err != nil {
		return nil, err
	}
	return f, nil
}

// WorkbookBytes flattens a workbook for an attachment response.
func WorkbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("Error serializing workbook: %s\n", err.Error())
		return nil, err
	}
	return buf.Bytes(), nil
}
