package lifecycle

import (
	"time"

	"mms/src/config"
	"mms/src/db"
	"mms/src/mealtime"
	"mms/src/models"
	"mms/src/types"
)

// WalletSummary is the read-only aggregation behind the wallet screen:
// how many meals were collected, how many booked days went uncollected
// and how much pay-later shortfall is waiting for salary deduction.
type WalletSummary struct {
	Served      int64   `json:"served"`
	Missed      int64   `json:"missed"`
	LoanBalance float32 `json:"loan_balance"`
	Currency    string  `json:"currency"`
}

// Wallet aggregates an employee's meal history. Missed meals are past
// days still sitting in booked: the rollover job returns any stale
// in-flight state there, so booked-with-past-date is the one signal
// needed.
func Wallet(userID uint, now time.Time) (*WalletSummary, error) {
	gdb := db.GetDb()
	today := mealtime.DateKey(now)
	summary := WalletSummary{Currency: config.PRICE_CURRENCY}

	if err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status = ?", userID, types.BOOKING_SERVED).
		Count(&summary.Served).
		Error; err != nil {
		return nil, err
	}

	if err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status = ? AND date_key < ?", userID, types.BOOKING_BOOKED, today).
		Count(&summary.Missed).
		Error; err != nil {
		return nil, err
	}

	var loans []models.Booking
	if err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status = ? AND payment_type = ?",
			userID, types.BOOKING_SERVED, types.PAYMENT_PAY_LATER).
		Find(&loans).
		Error; err != nil {
		return nil, err
	}
	if len(loans) > 0 {
		prices, err := MealPrices()
		if err != nil {
			return nil, err
		}
		for _, b := range loans {
			if b.AmountPaid == nil {
				continue
			}
			if shortfall := prices[b.MealType] - *b.AmountPaid; shortfall > 0 {
				summary.LoanBalance += shortfall
			}
		}
	}
	return &summary, nil
}
