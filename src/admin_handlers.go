package main

import (
	"dms/src/controllers"
	"dms/src/db"
	"dms/src/lib"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/users", func(ctx *gin.Context) {
			user, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": user})
		}).
		GET("/users", func(ctx *gin.Context) {
			var users []models.User
			conn := db.GetDb()
			if err := conn.Order("name asc").Find(&users).Error; err != nil {
				log.Printf("Error retrieving users: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": users})
		}).
		GET("/dealers", func(ctx *gin.Context) {
			var dealers []models.User
			conn := db.GetDb()
			if err := conn.
				Where(&models.User{Role: types.ROLE_DEALER}).
				Order("name asc").
				Find(&dealers).Error; err != nil {
				log.Printf("Error retrieving dealers: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": dealers})
		}).
		PUT("/users/role", func(ctx *gin.Context) {
			var body types.AssignRoleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user, err := utils.AssignRole(&body)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PUT("/tickets/:ticket_id/dealer", func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AssignDealerRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dealer, err := utils.GetUserByIdentifier(body.DealerID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			if dealer.Role != types.ROLE_DEALER {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("user %s is not a dealer", dealer.Name)})
				return
			}
			ticket, err := utils.AssignDealer(params.TicketID, body.DealerID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		PUT("/tickets/:ticket_id/reset", func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.ResetTicket(params.TicketID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		DELETE("/tickets/:ticket_id", func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := utils.DeleteTicket(params.TicketID); err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/export", func(ctx *gin.Context) {
			user := requestUser(ctx)
			scope, err := utils.BuildTicketFilter(user)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			conn := db.GetDb()
			var tickets []models.Ticket
			if err := conn.Scopes(scope).Order("updated_at desc").Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving tickets for export: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			var bookings []models.Booking
			if err := conn.Order("created_at desc").Find(&bookings).Error; err != nil {
				log.Printf("Error retrieving bookings for export: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			var vehicles []models.Vehicle
			if err := conn.Order("model asc").Find(&vehicles).Error; err != nil {
				log.Printf("Error retrieving vehicles for export: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			f, err := lib.BuildStockWorkbook(tickets, bookings, vehicles)
			if err != nil {
				log.Printf("Error building workbook: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			data, err := lib.WorkbookBytes(f)
			if err != nil {
				log.Printf("Error serializing workbook: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			filename := fmt.Sprintf("stock-%s.xlsx", time.Now().Format("2006-01-02"))
			ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			ctx.Data(http.StatusOK, xlsxContentType, data)
		}).
		GET("/export/template", func(ctx *gin.Context) {
			f, err := lib.BuildBulkUploadTemplate()
			if err != nil {
				log.Printf("Error building template: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			data, err := lib.WorkbookBytes(f)
			if err != nil {
				log.Printf("Error serializing template: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.Header("Content-Disposition", `attachment; filename="stock-upload-template.xlsx"`)
			ctx.Data(http.StatusOK, xlsxContentType, data)
		})
	return g
}
