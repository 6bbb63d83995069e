package main

import (
	"dms/src/db"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func masterHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/vehicles", func(ctx *gin.Context) {
			var vehicles []models.Vehicle
			conn := db.GetDb()
			if err := conn.
				Order("model asc, variant asc, colour asc").
				Find(&vehicles).Error; err != nil {
				log.Printf("Error retrieving vehicles: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": vehicles})
		}).
		POST("/vehicles", func(ctx *gin.Context) {
			var body types.CreateVehicleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			vehicle, err := utils.CreateVehicle(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": vehicle})
		}).
		POST("/vehicles/bulk", func(ctx *gin.Context) {
			var body types.BulkVehiclesRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			result, err := utils.BulkUpsertVehicles(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		PUT("/vehicles/price", func(ctx *gin.Context) {
			var body types.UpdateVehiclePriceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updated, err := utils.UpdateVehiclePrice(&body)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			user := requestUser(ctx)
			var bookings []models.Booking
			conn := db.GetDb()
			tx := conn.Order("created_at desc")
			if !user.Role.Privileged() && user.Branch != "" && user.Branch != "all" {
				tx = tx.Where("branch ILIKE ?", "%"+user.Branch+"%")
			}
			if err := tx.Find(&bookings).Error; err != nil {
				log.Printf("Error retrieving bookings: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings})
		}).
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			booking, err := utils.CreateBooking(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/bookings/aadhaar/:aadhaar", func(ctx *gin.Context) {
			var params struct {
				Aadhaar string `uri:"aadhaar" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := utils.LatestBookingByAadhaar(params.Aadhaar)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/customers", func(ctx *gin.Context) {
			user := requestUser(ctx)
			branch := user.Branch
			if user.Role.Privileged() {
				branch = "all"
			}
			customers, err := utils.ListCustomers(branch)
			if err != nil {
				log.Printf("Error retrieving customers: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": customers})
		}).
		POST("/customers", func(ctx *gin.Context) {
			var body types.CreateCustomerRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			customer, err := utils.CreateCustomer(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": customer})
		}).
		GET("/executives", func(ctx *gin.Context) {
			user := requestUser(ctx)
			branch := user.Branch
			if user.Role.Privileged() {
				branch = "all"
			}
			executives, err := utils.ListExecutives(branch)
			if err != nil {
				log.Printf("Error retrieving executives: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": executives})
		}).
		POST("/executives", func(ctx *gin.Context) {
			var body types.CreateExecutiveRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			executive, err := utils.CreateExecutive(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": executive})
		}).
		GET("/locations", func(ctx *gin.Context) {
			locations, err := utils.ListLocations()
			if err != nil {
				log.Printf("Error retrieving locations: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": locations})
		}).
		POST("/locations", func(ctx *gin.Context) {
			var body types.CreateLocationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			location, err := utils.CreateLocation(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": location})
		})
	return g
}
