package main

import (
	"context"
	"dms/src/config"
	"dms/src/db"
	"dms/src/lib"
	"dms/src/middlewares"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

// statusForError maps the business error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, utils.ErrStaleRecord):
		return http.StatusConflict
	case errors.Is(err, utils.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func requestUser(ctx *gin.Context) *models.User {
	value, _ := ctx.Get("user")
	return value.(*models.User)
}

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			user := requestUser(ctx)
			scope, err := utils.BuildTicketFilter(user)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var tickets []models.Ticket
			conn := db.GetDb()
			if err := conn.
				Scopes(scope).
				Order("updated_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving tickets: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/status/:status", func(ctx *gin.Context) {
			var params struct {
				Status types.TicketStatus `uri:"status" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			scope, err := utils.BuildTicketFilter(user)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var tickets []models.Ticket
			conn := db.GetDb()
			if err := conn.
				Scopes(scope).
				Where("status = ?", params.Status).
				Order("updated_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving tickets by status: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/:ticket_id", func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			scope, err := utils.BuildTicketFilter(user)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var ticket models.Ticket
			conn := db.GetDb()
			if err := conn.
				Scopes(scope).
				Where(&models.Ticket{Identifier: params.TicketID}).
				First(&ticket).
				Error; err != nil {
				// Out-of-scope tickets are indistinguishable from missing ones.
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		POST("/tickets", middlewares.RequirePermission(types.PERM_UPLOAD_STOCK), func(ctx *gin.Context) {
			var body types.CreateTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			ticket, err := utils.CreateTicket(&body, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": ticket})
		}).
		POST("/tickets/bulk", middlewares.RequirePermission(types.PERM_UPLOAD_STOCK), func(ctx *gin.Context) {
			var body types.BulkTicketsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			result, err := utils.BulkCreateTickets(body.Rows, user.Identifier)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		PUT("/tickets/allocate", middlewares.RequirePermission(types.PERM_ALLOCATION_DETAILS), func(ctx *gin.Context) {
			var body types.AllocateTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.AllocateTicket(&body)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		PUT("/tickets/:ticket_id/sale-letter", middlewares.RequirePermission(types.PERM_ISSUE_SALE_LETTER), func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.IssueSaleLetterRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.IssueSaleLetter(params.TicketID, &body)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		PUT("/tickets/:ticket_id/passing", middlewares.RequirePermission(types.PERM_PASSING_DETAILS), func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.PassingDateRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			passingDate, err := time.Parse(config.DATE_PARSE_FORMAT, body.PassingDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.RecordPassingDate(params.TicketID, passingDate)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		PUT("/tickets/:ticket_id/registration", middlewares.RequirePermission(types.PERM_REGISTRATION_DETAILS), func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.RegistrationDetailsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			registrationDate, err := time.Parse(config.DATE_PARSE_FORMAT, body.RegistrationDate)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.SetRegistrationDetails(params.TicketID, registrationDate, body.VehicleNumber)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		PUT("/tickets/:ticket_id/gate-pass", middlewares.RequirePermission(types.PERM_DELIVERY_REPORT), func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.GatePassRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.IssueGatePass(params.TicketID, &body)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:ticket_id/gate-pass/qr", middlewares.RequirePermission(types.PERM_DELIVERY_REPORT), func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ticket, err := utils.GetTicket(params.TicketID)
			if err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			if ticket.GatePassSerialNumber == "" {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no gate pass issued for this ticket"})
				return
			}
			payload := fmt.Sprintf("%s|%s|%s %s %s|%s", ticket.GatePassSerialNumber, ticket.Identifier, ticket.Model, ticket.Variant, ticket.Colour, ticket.ChassisNo)
			qrc, err := qrcode.New(payload)
			if err != nil {
				log.Printf("Could not build qrcode for ticket [%s]: %s\n", ticket.Identifier, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filename := fmt.Sprintf("gatepass-%s", ticket.Identifier)
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"filename": filename, "url": fmt.Sprintf("%s/share/%s", apiPrefix, filename)}})
		}).
		GET("/gate-pass/latest", middlewares.RequirePermission(types.PERM_DELIVERY_REPORT), func(ctx *gin.Context) {
			location := ctx.Query("location")
			if location == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
				return
			}
			if serial := lib.CachedGatePassSerial(context.Background(), location); serial != "" {
				ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"serial": serial}})
				return
			}
			var ticket models.Ticket
			conn := db.GetDb()
			if err := conn.
				Where("location = ? AND gate_pass_serial_number <> ''", location).
				Order("gate_pass_serial_number desc").
				First(&ticket).
				Error; err != nil {
				ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"serial": ""}})
				return
			}
			lib.CacheGatePassSerial(context.Background(), location, ticket.GatePassSerialNumber)
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"serial": ticket.GatePassSerialNumber}})
		}).
		POST("/tickets/:ticket_id/messages", func(ctx *gin.Context) {
			var params types.TicketIDRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AddMessageRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			user := requestUser(ctx)
			if err := utils.AddTicketLog(params.TicketID, user.Role, body.Message); err != nil {
				ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusCreated)
		}).
		GET("/transitions", func(ctx *gin.Context) {
			user := requestUser(ctx)
			ctx.JSON(http.StatusOK, gin.H{"data": utils.AllowedTransitions(user)})
		})
	return g
}
