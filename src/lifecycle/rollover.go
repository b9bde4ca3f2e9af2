package lifecycle

import (
	"log"
	"time"

	"mms/src/db"
	"mms/src/mealtime"
	"mms/src/models"
	"mms/src/types"
)

// RolloverStaleCollections returns any booking whose serving day ended
// mid-collection (requested, accepted or paid but never issued) back
// to booked and wipes the in-flight collection state. Those rows then
// count as missed meals in the wallet.
func RolloverStaleCollections(now time.Time) error {
	gdb := db.GetDb()
	today := mealtime.DateKey(now)
	res := gdb.
		Model(&models.Booking{}).
		Where("date_key < ? AND status IN ?", today, []types.BookingStatus{
			types.BOOKING_REQUESTED,
			types.BOOKING_ACCEPTED,
			types.BOOKING_PAID,
		}).
		Updates(map[string]any{
			"status":       types.BOOKING_BOOKED,
			"otp":          nil,
			"payment_type": nil,
			"amount_paid":  nil,
			"verified_at":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("Rolled %d stale collection(s) back to booked\n", res.RowsAffected)
	}
	return nil
}
