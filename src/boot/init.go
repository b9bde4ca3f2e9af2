package boot

import (
	"log"
	"os"
	"time"

	"mms/src/config"
	"mms/src/db"
	"mms/src/lib"
	"mms/src/lifecycle"
	"mms/src/mealtime"
	"mms/src/models"
	"mms/src/types"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	gdb := db.GetDb()

	err := gdb.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.MealPrice{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	// AutoMigrate only builds idx_meal_slot as a plain index. The
	// one-live-booking-per-slot rule needs a partial unique index so two
	// concurrent inserts for the same slot cannot both commit.
	if err = gdb.Exec(`
	CREATE UNIQUE INDEX IF NOT EXISTS idx_live_meal_slot
	ON bookings (user_id, date_key, meal_type)
	WHERE status <> 'cancelled' AND deleted_at IS NULL
	`).Error; err != nil {
		log.Fatalf("error creating index idx_live_meal_slot: %s", err.Error())
	}
	seedMealPrices(gdb)

	return gdb
}

// InitTimezone pins the wall-clock zone deadlines and serving windows
// are evaluated in. Defaults to UTC when MEAL_TIMEZONE is unset.
func InitTimezone() {
	tz := os.Getenv("MEAL_TIMEZONE")
	if tz == "" {
		return
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Invalid MEAL_TIMEZONE %q, staying on UTC: %s\n", tz, err.Error())
		return
	}
	mealtime.Zone = loc
}

func seedMealPrices(gdb *gorm.DB) {
	var count int64
	if err := gdb.Model(&models.MealPrice{}).Count(&count).Error; err != nil {
		log.Printf("Error counting meal prices: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	defaults := []models.MealPrice{
		{MealType: types.MEAL_BREAKFAST, Price: config.DEFAULT_BREAKFAST_PRICE, Currency: config.PRICE_CURRENCY},
		{MealType: types.MEAL_LUNCH, Price: config.DEFAULT_LUNCH_PRICE, Currency: config.PRICE_CURRENCY},
		{MealType: types.MEAL_DINNER, Price: config.DEFAULT_DINNER_PRICE, Currency: config.PRICE_CURRENCY},
	}
	if err := gdb.Create(&defaults).Error; err != nil {
		log.Printf("Error seeding meal prices: %s\n", err.Error())
		return
	}
	log.Println("Seeded default meal prices")
}

// InitScheduler starts the nightly rollover: stale in-flight
// collections go back to booked just after midnight, and the price
// cache is rebuilt for the new day.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	_, err = lib.CreateDailyJob("meal-day-rollover", 0, 5, func() {
		if err := lifecycle.RolloverStaleCollections(time.Now()); err != nil {
			log.Printf("Error rolling over stale collections: %s\n", err.Error())
		}
		lifecycle.RefreshPriceCache()
	})
	if err != nil {
		log.Printf("Error scheduling rollover job: %s\n", err.Error())
		return
	}
	sched.Start()
	log.Println("Jobs in queue:", len(sched.Jobs()))
}
