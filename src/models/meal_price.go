package models

import "mms/src/types"

type MealPrice struct {
	ID       uint           `gorm:"primarykey" json:"id"`
	MealType types.MealType `gorm:"uniqueIndex" json:"meal_type"`
	Price    float32        `json:"price"`
	Currency string         `json:"currency,omitempty"`

	types.Timestamps
}
