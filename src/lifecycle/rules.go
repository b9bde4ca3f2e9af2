// Package lifecycle drives the booking state machine: the guarded
// transitions booked → requested → accepted → paid → served, the
// cancel and reject paths, and the events published to the realtime
// rooms. Guards are pure functions over a booking snapshot; mutations
// happen as compare-and-swap updates on the status column so exactly
// one writer wins a contended transition.
package lifecycle

import (
	"time"

	"mms/src/mealtime"
	"mms/src/models"
	"mms/src/types"
)

// RequestGuard decides whether a collection request may proceed.
// proceed=false with a nil error is the idempotent repeat: the booking
// is already requested and the caller must return current state
// without publishing another canteen notification.
func RequestGuard(b models.Booking, now time.Time) (proceed bool, err error) {
	switch b.Status {
	case types.BOOKING_SERVED:
		return false, types.ErrAlreadyServed
	case types.BOOKING_CANCELED:
		return false, types.ErrAlreadyResolved
	case types.BOOKING_REQUESTED:
		return false, nil
	case types.BOOKING_ACCEPTED, types.BOOKING_PAID:
		return false, types.ErrAlreadyRequested
	}
	if b.DateKey != mealtime.DateKey(now) {
		return false, types.ErrTimeLocked
	}
	if !mealtime.InRequestWindow(now, b.MealType) {
		return false, types.ErrTimeLocked
	}
	return true, nil
}

// CancelGuard decides whether the actor may cancel the booking.
func CancelGuard(b models.Booking, actorID uint, now time.Time) error {
	if b.UserID != actorID {
		return types.ErrNotOwner
	}
	switch b.Status {
	case types.BOOKING_SERVED:
		return types.ErrAlreadyServed
	case types.BOOKING_CANCELED:
		return nil
	case types.BOOKING_BOOKED:
	default:
		return types.ErrAlreadyResolved
	}
	if !mealtime.CanCancel(now, b.Date, b.MealType) {
		return types.ErrDeadlinePassed
	}
	return nil
}

// RespondGuard decides whether a canteen decision can still land on
// the request.
func RespondGuard(b models.Booking) error {
	if b.Status != types.BOOKING_REQUESTED {
		return types.ErrAlreadyResolved
	}
	return nil
}

// VerifyGuard decides the outcome of an OTP submission. already=true
// means the code was verified before and the call is an idempotent
// success with no state change.
func VerifyGuard(b models.Booking, actorID uint, code string) (already bool, err error) {
	if b.UserID != actorID {
		return false, types.ErrNotOwner
	}
	if b.VerifiedAt != nil {
		// Resubmission after a flaky acknowledgment: succeed without
		// touching verifiedAt, but a wrong code is still rejected
		// while the OTP is live.
		if b.OTP != nil && !otpMatches(*b.OTP, code) {
			return false, types.ErrInvalidCode
		}
		return true, nil
	}
	if b.Status != types.BOOKING_ACCEPTED || b.OTP == nil {
		return false, types.ErrInvalidCode
	}
	if !otpMatches(*b.OTP, code) {
		return false, types.ErrInvalidCode
	}
	return false, nil
}

// PayGuard decides whether a payment may land on the booking.
func PayGuard(b models.Booking, actorID uint) error {
	if b.UserID != actorID {
		return types.ErrNotOwner
	}
	switch b.Status {
	case types.BOOKING_SERVED:
		return types.ErrAlreadyServed
	case types.BOOKING_ACCEPTED:
	default:
		return types.ErrAlreadyResolved
	}
	if b.VerifiedAt == nil {
		return types.ErrNotVerified
	}
	return nil
}

// NormalizePayment enforces the subrole payment policy and returns the
// amount to record: interns eat free, permanents pay in full, casual
// and manpower staff may split between cash now and a salary loan.
func NormalizePayment(subRole types.SubRole, method types.PaymentType, amount, price float32) (float32, error) {
	allowed := map[types.SubRole][]types.PaymentType{
		types.SUBROLE_INTERN:    {types.PAYMENT_FREE},
		types.SUBROLE_PERMANENT: {types.PAYMENT_PAY_NOW},
		types.SUBROLE_CASUAL:    {types.PAYMENT_PAY_NOW, types.PAYMENT_PAY_LATER},
		types.SUBROLE_MANPOWER:  {types.PAYMENT_PAY_NOW, types.PAYMENT_PAY_LATER},
	}
	ok := false
	for _, m := range allowed[subRole] {
		if m == method {
			ok = true
			break
		}
	}
	if !ok {
		return 0, types.ErrMethodNotAllowed
	}
	switch method {
	case types.PAYMENT_FREE:
		return 0, nil
	case types.PAYMENT_PAY_NOW:
		return price, nil
	default:
		if amount < 0 || amount > price {
			return 0, types.ErrAmountOutOfRange
		}
		return amount, nil
	}
}

// IssueGuard decides whether the canteen may hand over the meal. The
// operator re-keys the amount as a manual double-check; any mismatch
// blocks the issue and leaves the booking paid.
func IssueGuard(b models.Booking, confirmed float32) error {
	switch b.Status {
	case types.BOOKING_SERVED:
		return types.ErrAlreadyServed
	case types.BOOKING_PAID:
	default:
		return types.ErrAlreadyResolved
	}
	if b.AmountPaid == nil || *b.AmountPaid != confirmed {
		return types.ErrAmountMismatch
	}
	return nil
}

// RejectIssueGuard decides whether the booking can be pushed back to
// booked from the serving queue.
func RejectIssueGuard(b models.Booking) error {
	switch b.Status {
	case types.BOOKING_SERVED:
		return types.ErrAlreadyServed
	case types.BOOKING_PAID:
		return nil
	default:
		return types.ErrAlreadyResolved
	}
}
