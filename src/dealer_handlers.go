package main

import (
	"dms/src/db"
	"dms/src/models"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func dealerHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			user := requestUser(ctx)
			var tickets []models.Ticket
			conn := db.GetDb()
			if err := conn.
				Where(&models.Ticket{AssignedDealer: user.Identifier}).
				Order("updated_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving dealer tickets: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/summary", func(ctx *gin.Context) {
			user := requestUser(ctx)
			type row struct {
				Status string `json:"status"`
				Count  int64  `json:"count"`
			}
			var rows []row
			conn := db.GetDb()
			if err := conn.
				Model(&models.Ticket{}).
				Select("status, count(*) as count").
				Where(&models.Ticket{AssignedDealer: user.Identifier}).
				Group("status").
				Find(&rows).Error; err != nil {
				log.Printf("Error summarizing dealer tickets: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rows})
		}).
		GET("/transfers", func(ctx *gin.Context) {
			user := requestUser(ctx)
			var tickets []models.Ticket
			conn := db.GetDb()
			if err := conn.
				Where("dealer_history @> ?", `[{"to_dealer":"`+user.Identifier+`"}]`).
				Order("updated_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving dealer transfers: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		})
	return g
}
