package main

import (
	"net/http"
	"time"

	"mms/src/lifecycle"
	"mms/src/middlewares"
	"mms/src/types"

	"github.com/gin-gonic/gin"
)

func walletHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	meal := g.Group("/meal")
	meal.
		GET("/prices", func(ctx *gin.Context) {
			prices, err := lifecycle.MealPrices()
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": prices})
		})

	wallet := meal.Group("")
	wallet.Use(middlewares.RequireRole(types.ROLE_EMPLOYEE))
	wallet.
		GET("/wallet", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			summary, err := lifecycle.Wallet(userId, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
		})
	return meal
}
