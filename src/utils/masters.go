package utils

import (
	"dms/src/db"
	"dms/src/models"
	"dms/src/types"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTicket inserts one stock unit at intake. Duplicate chassis or engine
// numbers are a conflict, never a merge.
func CreateTicket(params *types.CreateTicketRequestBody, byUser string) (*models.Ticket, error) {
	ticket := models.Ticket{
		Identifier:     uuid.NewString(),
		ByUser:         byUser,
		Model:          params.Model,
		Variant:        params.Variant,
		Colour:         params.Colour,
		ChassisNo:      params.ChassisNo,
		EngineNo:       params.EngineNo,
		Location:       params.Location,
		AssignedDealer: params.AssignedDealer,
		Status:         types.TICKET_OPEN,
	}
	conn := db.GetDb()
	if err := conn.Create(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: chassis or engine number already in stock", ErrAlreadyExists)
		}
		return nil, err
	}
	return &ticket, nil
}

// BulkCreateTickets ingests a stock spreadsheet. Each row auto-creates the
// referenced vehicle catalog entry when absent, then inserts the ticket.
// One bad row does not fail the batch; outcomes are reported per item.
func BulkCreateTickets(rows []types.BulkTicketRow, byUser string) (types.BulkResult, error) {
	var result types.BulkResult
	conn := db.GetDb()
	for _, row := range rows {
		err := conn.Transaction(func(tx *gorm.DB) error {
			vehicle := models.Vehicle{
				Identifier: uuid.NewString(),
				ByUser:     byUser,
				Model:      row.Model,
				Variant:    row.Variant,
				Colour:     row.Colour,
				PriceLock:  row.PriceLock,
			}
			if err := tx.
				Where(&models.Vehicle{Model: row.Model, Variant: row.Variant, Colour: row.Colour}).
				FirstOrCreate(&vehicle).
				Error; err != nil {
				return err
			}
			ticket := models.Ticket{
				Identifier: uuid.NewString(),
				ByUser:     byUser,
				Model:      row.Model,
				Variant:    row.Variant,
				Colour:     row.Colour,
				ChassisNo:  row.ChassisNo,
				EngineNo:   row.EngineNo,
				Location:   row.Location,
				Status:     types.TICKET_OPEN,
			}
			return tx.Create(&ticket).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: chassis or engine number already in stock", row.ChassisNo))
				continue
			}
			log.Printf("Error ingesting stock row [%s]: %s\n", row.ChassisNo, err.Error())
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", row.ChassisNo, err.Error()))
			continue
		}
		result.Created++
	}
	return result, nil
}

// CreateVehicle adds one catalog entry. An existing (model, variant, colour)
// tuple is rejected.
func CreateVehicle(params *types.CreateVehicleRequestBody, byUser string) (*models.Vehicle, error) {
	vehicle := models.Vehicle{
		Identifier: uuid.NewString(),
		ByUser:     byUser,
		Model:      params.Model,
		Variant:    params.Variant,
		Colour:     params.Colour,
		PriceLock:  params.PriceLock,
	}
	conn := db.GetDb()
	if err := conn.Create(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: vehicle %s %s %s", ErrAlreadyExists, params.Model, params.Variant, params.Colour)
		}
		return nil, err
	}
	return &vehicle, nil
}

// BulkUpsertVehicles inserts catalog entries that do not exist yet. Existing
// tuples keep their price lock untouched.
func BulkUpsertVehicles(params *types.BulkVehiclesRequestBody, byUser string) (types.BulkResult, error) {
	var result types.BulkResult
	vehicles := make([]models.Vehicle, 0, len(params.Vehicles))
	for _, v := range params.Vehicles {
		vehicles = append(vehicles, models.Vehicle{
			Identifier: uuid.NewString(),
			ByUser:     byUser,
			Model:      v.Model,
			Variant:    v.Variant,
			Colour:     v.Colour,
			PriceLock:  v.PriceLock,
		})
	}
	conn := db.GetDb()
	res := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "model"}, {Name: "variant"}, {Name: "colour"}},
		DoNothing: true,
	}).Create(&vehicles)
	if res.Error != nil {
		return result, res.Error
	}
	result.Created = int(res.RowsAffected)
	result.Skipped = len(vehicles) - result.Created
	return result, nil
}

// UpdateVehiclePrice changes the price lock across a (model, variant) range,
// optionally narrowed to specific colours.
func UpdateVehiclePrice(params *types.UpdateVehiclePriceRequestBody) (int64, error) {
	conn := db.GetDb()
	tx := conn.
		Model(&models.Vehicle{}).
		Where(&models.Vehicle{Model: params.Model, Variant: params.Variant})
	if len(params.Colours) > 0 {
		tx = tx.Where("colour IN ?", params.Colours)
	}
	res := tx.Update("price_lock", params.PriceLock)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: no vehicle for %s %s", ErrNotFound, params.Model, params.Variant)
	}
	return res.RowsAffected, nil
}

// CreateBooking reserves a (model, variant, colour) for a customer. The
// booking amount may not undercut the catalog price lock; equality passes.
func CreateBooking(params *types.CreateBookingRequestBody, byUser string) (*models.Booking, error) {
	var booking models.Booking
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
		booking = models.Booking{
			Identifier:    uuid.NewString(),
			ByUser:        byUser,
			CusName:       params.CusName,
			Aadhaar:       params.Aadhaar,
			AddCus:        params.AddCus,
			Model:         params.Model,
			Variant:       params.Variant,
			Colour:        params.Colour,
			BookingAmount: params.BookingAmount,
			Executive:     params.Executive,
			Branch:        params.Branch,
			HP:            params.HP,
			EmailID:       params.EmailID,
			MobileNumber:  params.MobileNumber,
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// LatestBookingByAadhaar returns the customer's most recent booking, used to
// prefill allocation forms.
func LatestBookingByAadhaar(aadhaar string) (*models.Booking, error) {
	var booking models.Booking
	conn := db.GetDb()
	if err := conn.
		Where(&models.Booking{Aadhaar: aadhaar}).
		Order("created_at desc").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no booking for aadhaar %s", ErrNotFound, aadhaar)
		}
		return nil, err
	}
	return &booking, nil
}
