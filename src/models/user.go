package models

import (
	"mms/src/types"
)

type User struct {
	ID           uint          `gorm:"primarykey" json:"id"`
	FullName     string        `json:"full_name,omitempty"`
	Username     string        `gorm:"uniqueIndex" json:"username,omitempty"`
	MobileNumber string        `json:"-"`
	Role         string        `json:"role,omitempty"`
	SubRole      types.SubRole `json:"sub_role,omitempty"`

	Bookings []Booking `gorm:"foreignKey:user_id" json:"bookings,omitempty"`

	types.Timestamps
}
