package utils

import (
	"dms/src/db"
	"dms/src/models"
	"dms/src/types"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateCustomer(params *types.CreateCustomerRequestBody, byUser string) (*models.Customer, error) {
	customer := models.Customer{
		Identifier:   uuid.NewString(),
		ByUser:       byUser,
		CusName:      params.CusName,
		Aadhaar:      params.Aadhaar,
		AddCus:       params.AddCus,
		EmailID:      params.EmailID,
		MobileNumber: params.MobileNumber,
		Branch:       params.Branch,
		HP:           params.HP,
	}
	conn := db.GetDb()
	if err := conn.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func ListCustomers(branch string) ([]models.Customer, error) {
	customers := []models.Customer{}
	conn := db.GetDb()
	tx := conn.Order("created_at desc")
	if branch != "" && branch != "all" {
		tx = tx.Where("branch ILIKE ?", "%"+branch+"%")
	}
	if err := tx.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func CreateExecutive(params *types.CreateExecutiveRequestBody, byUser string) (*models.Executive, error) {
	executive := models.Executive{
		Identifier: uuid.NewString(),
		ByUser:     byUser,
		Name:       params.Name,
		Phone:      params.Phone,
		Branch:     params.Branch,
	}
	conn := db.GetDb()
	if err := conn.Create(&executive).Error; err != nil {
		return nil, err
	}
	return &executive, nil
}

func ListExecutives(branch string) ([]models.Executive, error) {
	executives := []models.Executive{}
	conn := db.GetDb()
	tx := conn.Order("name asc")
	if branch != "" && branch != "all" {
		tx = tx.Where("branch ILIKE ?", "%"+branch+"%")
	}
	if err := tx.Find(&executives).Error; err != nil {
		return nil, err
	}
	return executives, nil
}

func CreateLocation(params *types.CreateLocationRequestBody, byUser string) (*models.Location, error) {
	location := models.Location{
		Identifier: uuid.NewString(),
		ByUser:     byUser,
		Name:       params.Name,
	}
	conn := db.GetDb()
	if err := conn.Create(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: location %s", ErrAlreadyExists, params.Name)
		}
		return nil, err
	}
	return &location, nil
}

func ListLocations() ([]models.Location, error) {
	locations := []models.Location{}
	conn := db.GetDb()
	if err := conn.Order("name asc").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}
