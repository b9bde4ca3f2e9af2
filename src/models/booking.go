package models

import (
	"time"

	"mms/src/types"

	"github.com/google/uuid"
)

// Booking is one reserved meal slot: one employee, one date, one meal
// type. DateKey is the canonical UTC-midnight day key; at most one
// non-cancelled row may exist per (user_id, date_key, meal_type).
type Booking struct {
	ID          uuid.UUID           `gorm:"type:uuid;primarykey" json:"id"`
	UserID      uint                `gorm:"index:idx_meal_slot" json:"user_id,omitempty"`
	Date        time.Time           `json:"date"`
	DateKey     string              `gorm:"index:idx_meal_slot" json:"date_key"`
	MealType    types.MealType      `gorm:"index:idx_meal_slot" json:"meal_type"`
	Status      types.BookingStatus `json:"status"`
	OTP         *string             `json:"-"`
	PaymentType *types.PaymentType  `json:"payment_type,omitempty"`
	AmountPaid  *float32            `json:"amount_paid,omitempty"`
	VerifiedAt  *time.Time          `json:"verified_at,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
