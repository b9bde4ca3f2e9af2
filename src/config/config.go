package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const DATE_PARSE_FORMAT = "2006-01-02"

// BOOKING_WINDOW_DAYS is the size of the rolling window of reservable dates.
const BOOKING_WINDOW_DAYS = 7

// OTP_LENGTH is the number of decimal digits in a collection code.
const OTP_LENGTH = 4

// Default meal prices (LKR), used to seed the price table on first boot.
const (
	DEFAULT_BREAKFAST_PRICE float32 = 100
	DEFAULT_LUNCH_PRICE     float32 = 150
	DEFAULT_DINNER_PRICE    float32 = 150
	PRICE_CURRENCY                  = "LKR"
)
