package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type MealType string

const (
	MEAL_BREAKFAST MealType = "breakfast"
	MEAL_LUNCH     MealType = "lunch"
	MEAL_DINNER    MealType = "dinner"
)

// MealTypes lists every meal type in serving order.
var MealTypes = []MealType{MEAL_BREAKFAST, MEAL_LUNCH, MEAL_DINNER}

type BookingStatus string

const (
	BOOKING_BOOKED    BookingStatus = "booked"
	BOOKING_REQUESTED BookingStatus = "requested"
	BOOKING_ACCEPTED  BookingStatus = "accepted"
	BOOKING_PAID      BookingStatus = "paid"
	BOOKING_SERVED    BookingStatus = "served"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

type PaymentType string

const (
	PAYMENT_FREE      PaymentType = "free"
	PAYMENT_PAY_NOW   PaymentType = "pay_now"
	PAYMENT_PAY_LATER PaymentType = "pay_later"
)

const (
	ROLE_EMPLOYEE = "employee"
	ROLE_CANTEEN  = "canteen"
)

type SubRole string

const (
	SUBROLE_INTERN    SubRole = "intern"
	SUBROLE_PERMANENT SubRole = "permanent"
	SUBROLE_CASUAL    SubRole = "casual"
	SUBROLE_MANPOWER  SubRole = "manpower"
)

type LoginRequestBody struct {
	Username     string `json:"username" binding:"required"`
	MobileNumber string `json:"mobileNumber" binding:"required"`
}

type MealSelection struct {
	Date     string   `json:"date" binding:"required,mealdate"`
	MealType MealType `json:"meal_type" binding:"required,oneof=breakfast lunch dinner"`
}

type BookMealsRequestBody struct {
	Bookings []MealSelection `json:"bookings" binding:"omitempty,dive"`
}

type RequestMealRequestBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
}

type RespondRequestBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Action    string `json:"action" binding:"required,oneof=accept reject"`
	Reason    string `json:"reason,omitempty"`
}

type VerifyOTPRequestBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	OTP       string `json:"otp" binding:"required,len=4,numeric"`
}

type PayRequestBody struct {
	BookingID   string      `json:"booking_id" binding:"required,uuid"`
	PaymentType PaymentType `json:"payment_type" binding:"required,oneof=free pay_now pay_later"`
	AmountPaid  *float32    `json:"amount_paid" binding:"required"`
}

type IssueRequestBody struct {
	BookingID       string   `json:"booking_id" binding:"required,uuid"`
	ConfirmedAmount *float32 `json:"confirmed_amount" binding:"required"`
}

type RejectIssueRequestBody struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Reason    string `json:"reason,omitempty"`
}

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}
