package mealtime

import (
	"time"

	"mms/src/config"
	"mms/src/models"
	"mms/src/types"
)

type CellState string

const (
	CELL_SELECTABLE      CellState = "selectable"
	CELL_ALREADY_BOOKED  CellState = "already-booked"
	CELL_DEADLINE_PASSED CellState = "deadline-passed"
)

// CalendarDay is one row of the booking grid: a day key plus the state
// of each meal cell on that day.
type CalendarDay struct {
	Date  string                        `json:"date"`
	Meals map[types.MealType]CellState `json:"meals"`
}

// BuildCalendar renders the rolling booking window for one employee.
// bookings must be the employee's non-cancelled bookings; anything
// else in the slice makes cells read as taken when they are free.
func BuildCalendar(now time.Time, bookings []models.Booking) []CalendarDay {
	booked := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == types.BOOKING_CANCELED {
			continue
		}
		booked[b.DateKey+":"+string(b.MealType)] = true
	}

	days := make([]CalendarDay, 0, config.BOOKING_WINDOW_DAYS)
	start := NormalizeDate(now)
	for i := 0; i < config.BOOKING_WINDOW_DAYS; i++ {
		date := start.AddDate(0, 0, i)
		key := DateKey(date)
		day := CalendarDay{Date: key, Meals: make(map[types.MealType]CellState, len(types.MealTypes))}
		for _, meal := range types.MealTypes {
			switch {
			case booked[key+":"+string(meal)]:
				day.Meals[meal] = CELL_ALREADY_BOOKED
			case !CanBook(now, date, meal):
				day.Meals[meal] = CELL_DEADLINE_PASSED
			default:
				day.Meals[meal] = CELL_SELECTABLE
			}
		}
		days = append(days, day)
	}
	return days
}

// SelectableState reports the state of a single date/meal cell, used
// as the precondition check when a batch of bookings is submitted.
func SelectableState(now, date time.Time, meal types.MealType, taken bool) CellState {
	if taken {
		return CELL_ALREADY_BOOKED
	}
	if !CanBook(now, date, meal) {
		return CELL_DEADLINE_PASSED
	}
	return CELL_SELECTABLE
}
