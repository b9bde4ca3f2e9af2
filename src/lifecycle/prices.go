package lifecycle

import (
	"context"
	"encoding/json"
	"log"

	"mms/src/db"
	"mms/src/lib"
	"mms/src/models"
	"mms/src/types"
)

const priceCacheKey = "meal:prices"

// MealPrices returns the per-meal-type price table, served from the
// redis cache when warm.
func MealPrices() (map[types.MealType]float32, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		val := rd.JSONGet(context.Background(), priceCacheKey).Val()
		if val != "" {
			var cached map[types.MealType]float32
			if err := json.Unmarshal([]byte(val), &cached); err == nil && len(cached) > 0 {
				return cached, nil
			}
		}
	}

	gdb := db.GetDb()
	var rows []models.MealPrice
	if err := gdb.Model(&models.MealPrice{}).Find(&rows).Error; err != nil {
		return nil, err
	}
	prices := make(map[types.MealType]float32, len(rows))
	for _, row := range rows {
		prices[row.MealType] = row.Price
	}
	if rd != nil && len(prices) > 0 {
		if err := rd.JSONSet(context.Background(), priceCacheKey, "$", prices).Err(); err != nil {
			log.Printf("Error caching meal prices: %s\n", err.Error())
		}
	}
	return prices, nil
}

// PriceFor returns the current price of one meal type.
func PriceFor(meal types.MealType) (float32, error) {
	prices, err := MealPrices()
	if err != nil {
		return 0, err
	}
	return prices[meal], nil
}

// RefreshPriceCache drops the cached table so the next read hits the
// database. Run by the nightly job and after price edits.
func RefreshPriceCache() {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Del(context.Background(), priceCacheKey).Err(); err != nil {
		log.Printf("Error clearing meal price cache: %s\n", err.Error())
	}
	if _, err := MealPrices(); err != nil {
		log.Printf("Error rebuilding meal price cache: %s\n", err.Error())
	}
}
