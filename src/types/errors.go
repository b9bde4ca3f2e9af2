package types

import "errors"

// Domain errors surfaced by the booking lifecycle. Handlers translate
// these into HTTP statuses; anything else is treated as a storage error.
var (
	ErrEmpty            = errors.New("no meal selections submitted")
	ErrSlotTaken        = errors.New("meal already booked for that date")
	ErrNotOwner         = errors.New("booking belongs to another employee")
	ErrDeadlinePassed   = errors.New("deadline for this meal has passed")
	ErrAlreadyServed    = errors.New("meal has already been served")
	ErrTimeLocked       = errors.New("meal cannot be requested at this time")
	ErrAlreadyRequested = errors.New("meal request is already in progress")
	ErrAlreadyResolved  = errors.New("request has already been resolved")
	ErrInvalidCode      = errors.New("invalid OTP code")
	ErrNotVerified      = errors.New("OTP has not been verified yet")
	ErrMethodNotAllowed = errors.New("payment method not allowed for this employee")
	ErrAmountOutOfRange = errors.New("amount must be between 0 and the meal price")
	ErrAmountMismatch   = errors.New("confirmed amount does not match the paid amount")
	ErrNotFound         = errors.New("booking not found")
)
