package boot

import (
	"dms/src/db"
	"dms/src/lib"
	"dms/src/models"
	"dms/src/utils"
	"log"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Ticket{},
		&models.Booking{},
		&models.Vehicle{},
		&models.Customer{},
		&models.Executive{},
		&models.Location{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	id, err := lib.CreateCronJob(utils.SweepExpiredSessions, 5*time.Minute)
	if err != nil {
		log.Printf("Error scheduling session sweep: %s\n", err.Error())
		return
	}
	log.Printf("Session sweep job ID: %s\n", *id)
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
