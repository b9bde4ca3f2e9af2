// Package mealtime holds the pure time rules of the meal system: the
// cancellation and booking cutoffs, the same-day request windows and
// the canonical date keys. Everything here is a pure function of its
// inputs so both the HTTP handlers and the lifecycle transitions can
// evaluate the same rule and agree on the result.
package mealtime

import (
	"time"

	"mms/src/config"
	"mms/src/types"
)

// CutoffRule places a deadline relative to the meal's calendar date:
// DayOffset days after the date (negative means the day before), at
// Hour:Minute in Zone.
type CutoffRule struct {
	DayOffset int
	Hour      int
	Minute    int
}

// Window is an [Start, End) hour range on the serving day itself.
type Window struct {
	Start int
	End   int
}

// Zone is the wall-clock zone deadlines and serving windows are
// evaluated in. Overridden at boot from MEAL_TIMEZONE.
var Zone = time.UTC

// CancelCutoffs is the canonical cancellation deadline table: the day
// before the meal, at a meal-specific hour.
var CancelCutoffs = map[types.MealType]CutoffRule{
	types.MEAL_BREAKFAST: {DayOffset: -1, Hour: 10},
	types.MEAL_LUNCH:     {DayOffset: -1, Hour: 14},
	types.MEAL_DINNER:    {DayOffset: -1, Hour: 18},
}

// BookingCutoffs governs when a new booking for a date/meal closes.
// Kept as a policy distinct from CancelCutoffs even though the two are
// numerically equal today.
var BookingCutoffs = map[types.MealType]CutoffRule{
	types.MEAL_BREAKFAST: {DayOffset: -1, Hour: 10},
	types.MEAL_LUNCH:     {DayOffset: -1, Hour: 14},
	types.MEAL_DINNER:    {DayOffset: -1, Hour: 18},
}

// RequestWindows are the serving-day hour ranges inside which a meal
// may be requested for collection.
var RequestWindows = map[types.MealType]Window{
	types.MEAL_BREAKFAST: {Start: 7, End: 11},
	types.MEAL_LUNCH:     {Start: 12, End: 16},
	types.MEAL_DINNER:    {Start: 18, End: 22},
}

// NormalizeDate collapses any instant to midnight UTC of its calendar
// day. All stored booking dates and date keys go through this so the
// client's zone can never shift the day.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders the canonical day key for an instant.
func DateKey(t time.Time) string {
	return NormalizeDate(t).Format(config.DATE_PARSE_FORMAT)
}

// ParseDate accepts either a bare day key or an RFC3339 timestamp and
// returns the normalized UTC-midnight date.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(config.DATE_PARSE_FORMAT, s); err == nil {
		return NormalizeDate(d), nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(d), nil
}

func deadlineFor(rule CutoffRule, date time.Time) time.Time {
	day := NormalizeDate(date).AddDate(0, 0, rule.DayOffset)
	return time.Date(day.Year(), day.Month(), day.Day(), rule.Hour, rule.Minute, 0, 0, Zone)
}

// CancelDeadline is the instant after which a booking for the given
// date and meal can no longer be cancelled.
func CancelDeadline(date time.Time, meal types.MealType) time.Time {
	return deadlineFor(CancelCutoffs[meal], date)
}

// BookingDeadline is the instant after which a new booking for the
// given date and meal can no longer be created.
func BookingDeadline(date time.Time, meal types.MealType) time.Time {
	return deadlineFor(BookingCutoffs[meal], date)
}

// CanCancel reports whether a booking may still be cancelled. The
// deadline is exclusive: at the exact cutoff instant cancellation is
// already denied.
func CanCancel(now, date time.Time, meal types.MealType) bool {
	return now.Before(CancelDeadline(date, meal))
}

// CanBook reports whether a new booking may still be created.
func CanBook(now, date time.Time, meal types.MealType) bool {
	return now.Before(BookingDeadline(date, meal))
}

// InBookingWindow reports whether the date falls inside the rolling
// window of reservable days starting today.
func InBookingWindow(now, date time.Time) bool {
	start := NormalizeDate(now)
	end := start.AddDate(0, 0, config.BOOKING_WINDOW_DAYS)
	d := NormalizeDate(date)
	return !d.Before(start) && d.Before(end)
}

// InRequestWindow reports whether a same-day collection request is
// allowed at this wall-clock instant.
func InRequestWindow(now time.Time, meal types.MealType) bool {
	w, ok := RequestWindows[meal]
	if !ok {
		return false
	}
	hour := now.In(Zone).Hour()
	return hour >= w.Start && hour < w.End
}
