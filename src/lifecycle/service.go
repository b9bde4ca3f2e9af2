package lifecycle

import (
	"errors"
	"time"

	"mms/src/db"
	"mms/src/lib"
	"mms/src/mealtime"
	"mms/src/models"
	"mms/src/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is the live-slot unique index
// rejecting a duplicate insert.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func loadBooking(tx *gorm.DB, id uuid.UUID) (models.Booking, error) {
	var booking models.Booking
	err := tx.
		Model(&models.Booking{}).
		Preload("User").
		Where("id = ?", id).
		First(&booking).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking, types.ErrNotFound
	}
	return booking, err
}

func employeeName(b models.Booking) string {
	if b.User != nil {
		return b.User.FullName
	}
	return ""
}

// CreateBookings inserts one booked row per selection. The batch is
// all-or-nothing: one taken slot or one passed deadline rolls back
// every insert.
func CreateBookings(userID uint, selections []types.MealSelection, now time.Time) ([]models.Booking, error) {
	if len(selections) == 0 {
		return nil, types.ErrEmpty
	}
	created := make([]models.Booking, 0, len(selections))
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		for _, sel := range selections {
			date, err := mealtime.ParseDate(sel.Date)
			if err != nil {
				return err
			}
			if !mealtime.InBookingWindow(now, date) || !mealtime.CanBook(now, date, sel.MealType) {
				return types.ErrDeadlinePassed
			}
			var count int64
			if err := tx.
				Model(&models.Booking{}).
				Where("user_id = ? AND date_key = ? AND meal_type = ? AND status <> ?",
					userID, mealtime.DateKey(date), sel.MealType, types.BOOKING_CANCELED).
				Count(&count).
				Error; err != nil {
				return err
			}
			if count > 0 {
				return types.ErrSlotTaken
			}
			booking := models.Booking{
				ID:       uuid.New(),
				UserID:   userID,
				Date:     date,
				DateKey:  mealtime.DateKey(date),
				MealType: sel.MealType,
				Status:   types.BOOKING_BOOKED,
			}
			if err := tx.Create(&booking).Error; err != nil {
				// The count above races with concurrent submissions;
				// idx_live_meal_slot is the backstop that makes the
				// duplicate check hold across transactions.
				if isUniqueViolation(err) {
					return types.ErrSlotTaken
				}
				return err
			}
			created = append(created, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListUpcoming returns the employee's non-cancelled bookings from
// today forward, soonest first.
func ListUpcoming(userID uint, now time.Time) ([]models.Booking, error) {
	gdb := db.GetDb()
	var bookings []models.Booking
	err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status <> ? AND date_key >= ?",
			userID, types.BOOKING_CANCELED, mealtime.DateKey(now)).
		Order("date_key asc").
		Find(&bookings).
		Error
	return bookings, err
}

// ListToday returns the employee's non-cancelled bookings for the
// current serving day. This is the authoritative read path: it must be
// correct with zero realtime events delivered.
func ListToday(userID uint, now time.Time) ([]models.Booking, error) {
	gdb := db.GetDb()
	var bookings []models.Booking
	err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status <> ? AND date_key = ?",
			userID, types.BOOKING_CANCELED, mealtime.DateKey(now)).
		Find(&bookings).
		Error
	return bookings, err
}

// CancelBooking frees the slot for rebooking while the cancellation
// deadline has not elapsed.
func CancelBooking(id uuid.UUID, actorID uint, now time.Time) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		booking, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		if err := CancelGuard(booking, actorID, now); err != nil {
			return err
		}
		if booking.Status == types.BOOKING_CANCELED {
			return nil
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_BOOKED).
			Update("status", types.BOOKING_CANCELED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		return nil
	})
}

// RequestMeal moves a booking to requested and notifies the canteen
// room. A repeat while already requested is a no-op that returns
// current state without a second notification.
func RequestMeal(id uuid.UUID, actorID uint, now time.Time) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	requested := false
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = loadBooking(tx, id)
		if err != nil {
			return err
		}
		if booking.UserID != actorID {
			return types.ErrNotOwner
		}
		proceed, err := RequestGuard(booking, now)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_BOOKED).
			Update("status", types.BOOKING_REQUESTED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		booking.Status = types.BOOKING_REQUESTED
		requested = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if requested {
		lib.GetEmitter().Emit(lib.CanteenRoom, "new_meal_request", map[string]any{
			"bookingId":    booking.ID.String(),
			"employeeName": employeeName(booking),
			"mealType":     booking.MealType,
		})
	}
	return &booking, nil
}

// Respond records the canteen's accept/reject decision on a pending
// request. Exactly one concurrent decision wins; the loser observes
// ErrAlreadyResolved.
func Respond(id uuid.UUID, action string, reason string) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	var otp string
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = loadBooking(tx, id)
		if err != nil {
			return err
		}
		if err := RespondGuard(booking); err != nil {
			return err
		}
		if action == "accept" {
			otp, err = generateOTP()
			if err != nil {
				return err
			}
			res := tx.
				Model(&models.Booking{}).
				Where("id = ? AND status = ?", id, types.BOOKING_REQUESTED).
				Updates(map[string]any{"status": types.BOOKING_ACCEPTED, "otp": otp})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return types.ErrAlreadyResolved
			}
			booking.Status = types.BOOKING_ACCEPTED
			booking.OTP = &otp
			return nil
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_REQUESTED).
			Update("status", types.BOOKING_BOOKED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		booking.Status = types.BOOKING_BOOKED
		return nil
	})
	if err != nil {
		return nil, err
	}
	room := lib.UserRoom(booking.UserID)
	if action == "accept" {
		lib.GetEmitter().Emit(room, "meal_accepted", map[string]any{
			"bookingId": booking.ID.String(),
			"mealType":  booking.MealType,
			"otp":       otp,
		})
	} else {
		lib.GetEmitter().Emit(room, "meal_rejected", map[string]any{
			"bookingId": booking.ID.String(),
			"mealType":  booking.MealType,
			"reason":    reason,
		})
	}
	return &booking, nil
}

// VerifyOTP confirms the collection code. Submitting the correct code
// twice succeeds both times; verifiedAt is only written once.
func VerifyOTP(id uuid.UUID, actorID uint, code string) error {
	gdb := db.GetDb()
	return gdb.Transaction(func(tx *gorm.DB) error {
		booking, err := loadBooking(tx, id)
		if err != nil {
			return err
		}
		already, err := VerifyGuard(booking, actorID, code)
		if err != nil {
			return err
		}
		if already {
			return nil
		}
		return tx.
			Model(&models.Booking{}).
			Where("id = ? AND verified_at IS NULL", id).
			Update("verified_at", time.Now()).
			Error
	})
}

// Pay records the employee's payment and moves the booking into the
// serving queue. The OTP is spent here: it is cleared as part of the
// accepted → paid swap.
func Pay(id uuid.UUID, actorID uint, subRole types.SubRole, method types.PaymentType, amount float32) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = loadBooking(tx, id)
		if err != nil {
			return err
		}
		if err := PayGuard(booking, actorID); err != nil {
			return err
		}
		price, err := PriceFor(booking.MealType)
		if err != nil {
			return err
		}
		paid, err := NormalizePayment(subRole, method, amount, price)
		if err != nil {
			return err
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_ACCEPTED).
			Updates(map[string]any{
				"status":       types.BOOKING_PAID,
				"payment_type": method,
				"amount_paid":  paid,
				"otp":          nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		booking.Status = types.BOOKING_PAID
		booking.PaymentType = &method
		booking.AmountPaid = &paid
		booking.OTP = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	lib.GetEmitter().Emit(lib.CanteenRoom, "payment_confirmed", map[string]any{
		"bookingId":    booking.ID.String(),
		"employeeName": employeeName(booking),
		"mealType":     booking.MealType,
		"paymentType":  booking.PaymentType,
		"amountPaid":   booking.AmountPaid,
	})
	return &booking, nil
}

// IssueMeal is the canteen's final confirmation that the meal left the
// counter. confirmed is the amount the operator re-typed; it must
// equal the recorded amount exactly.
func IssueMeal(id uuid.UUID, confirmed float32) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = loadBooking(tx, id)
		if err != nil {
			return err
		}
		if err := IssueGuard(booking, confirmed); err != nil {
			return err
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_PAID).
			Update("status", types.BOOKING_SERVED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		booking.Status = types.BOOKING_SERVED
		return nil
	})
	if err != nil {
		return nil, err
	}
	lib.GetEmitter().Emit(lib.UserRoom(booking.UserID), "meal_issued", map[string]any{
		"bookingId": booking.ID.String(),
		"mealType":  booking.MealType,
	})
	return &booking, nil
}

// RejectIssue pushes a paid booking out of the serving queue and back
// to booked, wiping the OTP, payment record and verification so the
// employee can request again from a clean slate.
func RejectIssue(id uuid.UUID, reason string) (*models.Booking, error) {
	gdb := db.GetDb()
	var booking models.Booking
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = loadBooking(tx, id)
		if err != nil {
			return err
		}
		if err := RejectIssueGuard(booking); err != nil {
			return err
		}
		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, types.BOOKING_PAID).
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
		if res.RowsAffected == 0 {
			return types.ErrAlreadyResolved
		}
		booking.Status = types.BOOKING_BOOKED
		booking.OTP = nil
		booking.PaymentType = nil
		booking.AmountPaid = nil
		booking.VerifiedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	lib.GetEmitter().Emit(lib.UserRoom(booking.UserID), "meal_issue_rejected", map[string]any{
		"bookingId": booking.ID.String(),
		"mealType":  booking.MealType,
		"reason":    reason,
	})
	return &booking, nil
}

// Calendar renders the employee's booking grid for the rolling window.
func Calendar(userID uint, now time.Time) ([]mealtime.CalendarDay, error) {
	gdb := db.GetDb()
	var bookings []models.Booking
	err := gdb.
		Model(&models.Booking{}).
		Where("user_id = ? AND status <> ? AND date_key >= ?",
			userID, types.BOOKING_CANCELED, mealtime.DateKey(now)).
		Find(&bookings).
		Error
	if err != nil {
		return nil, err
	}
	return mealtime.BuildCalendar(now, bookings), nil
}
