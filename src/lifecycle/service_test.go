package lifecycle

import (
	"fmt"
	"log"
	"testing"
	"time"

	"mms/src/db"
	"mms/src/lib"
	"mms/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	return mock
}

type capturedEvent struct {
	Room  string
	Event string
	Data  map[string]any
}

type captureEmitter struct {
	events []capturedEvent
}

func (c *captureEmitter) Emit(room string, event string, data map[string]any) {
	c.events = append(c.events, capturedEvent{Room: room, Event: event, Data: data})
}

func swapEmitter(t *testing.T) *captureEmitter {
	t.Helper()
	prev := lib.GetEmitter()
	capture := &captureEmitter{}
	lib.NewEmitter(capture)
	t.Cleanup(func() { lib.NewEmitter(prev) })
	return capture
}

func bookingRows(id uuid.UUID, status types.BookingStatus, otp *string, verifiedAt *time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "date", "date_key", "meal_type", "status", "otp", "verified_at"}).
		AddRow(id.String(), 7, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), "2026-03-10", string(types.MEAL_LUNCH), string(status), otp, verifiedAt)
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "username", "role", "sub_role"}).
		AddRow(7, "Nimal Perera", "nimal", string(types.ROLE_EMPLOYEE), string(types.SUBROLE_CASUAL))
}

func TestRequestMealNotifiesCanteen(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	now := time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_BOOKED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := RequestMeal(id, 7, now)
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_REQUESTED, booking.Status)

	assert.Len(t, capture.events, 1)
	assert.Equal(t, lib.CanteenRoom, capture.events[0].Room)
	assert.Equal(t, "new_meal_request", capture.events[0].Event)
	assert.Equal(t, "Nimal Perera", capture.events[0].Data["employeeName"])
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRequestMealLosesRace(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	now := time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC)

	// Snapshot reads booked, but a concurrent cancel wins the swap.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_BOOKED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := RequestMeal(id, 7, now)
	assert.ErrorIs(t, err, types.ErrAlreadyResolved)
	assert.Empty(t, capture.events, "the losing writer must not notify the canteen")
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRequestMealRepeatIsSilent(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	now := time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_REQUESTED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectCommit()

	booking, err := RequestMeal(id, 7, now)
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_REQUESTED, booking.Status)
	assert.Empty(t, capture.events, "a repeat request must not page the canteen twice")
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRequestMealRejectsStranger(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	now := time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_BOOKED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectRollback()

	_, err := RequestMeal(id, 99, now)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	assert.Empty(t, capture.events)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPWritesVerifiedAtOnce(t *testing.T) {
	mock := newMockDB(t)
	id := uuid.New()
	otp := "0420"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_ACCEPTED, &otp, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.Nil(t, VerifyOTP(id, 7, "0420"))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPResubmissionSkipsWrite(t *testing.T) {
	mock := newMockDB(t)
	id := uuid.New()
	otp := "0420"
	when := time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_ACCEPTED, &otp, &when))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectCommit()

	assert.Nil(t, VerifyOTP(id, 7, "0420"))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyOTPWrongCode(t *testing.T) {
	mock := newMockDB(t)
	id := uuid.New()
	otp := "0420"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_ACCEPTED, &otp, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectRollback()

	assert.ErrorIs(t, VerifyOTP(id, 7, "9999"), types.ErrInvalidCode)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAfterDeadline(t *testing.T) {
	mock := newMockDB(t)
	id := uuid.New()
	// Lunch on the 10th closes for cancellation at 14:00 on the 9th.
	now := time.Date(2026, time.March, 9, 14, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_BOOKED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectRollback()

	assert.ErrorIs(t, CancelBooking(id, 7, now), types.ErrDeadlinePassed)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestIssueMealAmountMismatch(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "date_key", "meal_type", "status", "amount_paid"}).
		AddRow(id.String(), 7, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), "2026-03-10", string(types.MEAL_LUNCH), string(types.BOOKING_PAID), float32(150))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectRollback()

	_, err := IssueMeal(id, 100)
	assert.ErrorIs(t, err, types.ErrAmountMismatch)
	assert.Empty(t, capture.events, "a blocked issue must leave the booking paid with no event")
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingsDuplicateSlot(t *testing.T) {
	mock := newMockDB(t)
	now := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := CreateBookings(7, []types.MealSelection{
		{Date: "2026-03-10", MealType: types.MEAL_LUNCH},
	}, now)
	assert.ErrorIs(t, err, types.ErrSlotTaken)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationMapsToSlotTaken(t *testing.T) {
	// Two in-flight submissions can both pass the count; the second
	// insert then trips idx_live_meal_slot and must read as a taken
	// slot, not a storage failure.
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_live_meal_slot"}

	assert.True(t, isUniqueViolation(pgErr))
	assert.True(t, isUniqueViolation(fmt.Errorf("create booking: %w", pgErr)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(types.ErrSlotTaken))
}

func TestPayClearsOTP(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	otp := "0420"
	when := time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_ACCEPTED, &otp, &when))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectQuery(`SELECT \* FROM "meal_prices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "meal_type", "price", "currency"}).
			AddRow(1, string(types.MEAL_LUNCH), float32(150), "LKR"))
	mock.ExpectExec(`UPDATE "bookings" SET "amount_paid"=.*"otp"=.*"payment_type"=.*"status"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := Pay(id, 7, types.SUBROLE_CASUAL, types.PAYMENT_PAY_LATER, 50)
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_PAID, booking.Status)
	assert.Nil(t, booking.OTP, "the collection code is spent on payment")
	assert.Equal(t, float32(50), *booking.AmountPaid)

	assert.Len(t, capture.events, 1)
	assert.Equal(t, lib.CanteenRoom, capture.events[0].Room)
	assert.Equal(t, "payment_confirmed", capture.events[0].Event)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRejectIssueResetsCollectionState(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()
	when := time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "date_key", "meal_type", "status", "payment_type", "amount_paid", "verified_at"}).
		AddRow(id.String(), 7, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), "2026-03-10",
			string(types.MEAL_LUNCH), string(types.BOOKING_PAID), string(types.PAYMENT_PAY_NOW), float32(150), when)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectExec(`UPDATE "bookings" SET "amount_paid"=.*"otp"=.*"payment_type"=.*"status"=.*"verified_at"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	booking, err := RejectIssue(id, "out of rice")
	assert.Nil(t, err)
	assert.Equal(t, types.BOOKING_BOOKED, booking.Status)
	assert.Nil(t, booking.OTP)
	assert.Nil(t, booking.PaymentType)
	assert.Nil(t, booking.AmountPaid)
	assert.Nil(t, booking.VerifiedAt)

	assert.Len(t, capture.events, 1)
	assert.Equal(t, lib.UserRoom(7), capture.events[0].Room)
	assert.Equal(t, "meal_issue_rejected", capture.events[0].Event)
	assert.Equal(t, "out of rice", capture.events[0].Data["reason"])
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRespondOnResolvedRequest(t *testing.T) {
	mock := newMockDB(t)
	capture := swapEmitter(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(bookingRows(id, types.BOOKING_ACCEPTED, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(userRows())
	mock.ExpectRollback()

	_, err := Respond(id, "accept", "")
	assert.ErrorIs(t, err, types.ErrAlreadyResolved)
	assert.Empty(t, capture.events)
	assert.Nil(t, mock.ExpectationsWereMet())
}
