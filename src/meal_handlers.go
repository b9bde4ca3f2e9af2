package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"mms/src/lifecycle"
	"mms/src/middlewares"
	"mms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusForError maps lifecycle errors onto HTTP statuses: ownership
// and role failures are 403, bad input 400, state conflicts 409,
// anything unexpected 422.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotOwner),
		errors.Is(err, types.ErrMethodNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, types.ErrEmpty),
		errors.Is(err, types.ErrInvalidCode),
		errors.Is(err, types.ErrNotVerified),
		errors.Is(err, types.ErrAmountOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSlotTaken),
		errors.Is(err, types.ErrDeadlinePassed),
		errors.Is(err, types.ErrTimeLocked),
		errors.Is(err, types.ErrAlreadyRequested),
		errors.Is(err, types.ErrAlreadyResolved),
		errors.Is(err, types.ErrAlreadyServed),
		errors.Is(err, types.ErrAmountMismatch):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func abortWithError(ctx *gin.Context, err error) {
	log.Printf("[%s] %s\n", ctx.FullPath(), err.Error())
	ctx.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func mealHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	meal := g.Group("/meal")

	employee := meal.Group("")
	employee.Use(middlewares.RequireRole(types.ROLE_EMPLOYEE))
	employee.
		POST("/book", func(ctx *gin.Context) {
			var body types.BookMealsRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			bookings, err := lifecycle.CreateBookings(userId, body.Bookings, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": bookings, "count": len(bookings)})
		}).
		GET("/upcoming", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			bookings, err := lifecycle.ListUpcoming(userId, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bookings, "count": len(bookings)})
		}).
		GET("/today", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			bookings, err := lifecycle.ListToday(userId, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": bookings, "count": len(bookings)})
		}).
		GET("/calendar", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			days, err := lifecycle.Calendar(userId, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": days})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(params.ID)
			userId := ctx.GetUint("id")
			if err := lifecycle.CancelBooking(bookingId, userId, time.Now()); err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Booking cancelled"})
		}).
		POST("/request", func(ctx *gin.Context) {
			var body types.RequestMealRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			userId := ctx.GetUint("id")
			booking, err := lifecycle.RequestMeal(bookingId, userId, time.Now())
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
		}).
		POST("/verify-otp", func(ctx *gin.Context) {
			var body types.VerifyOTPRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			userId := ctx.GetUint("id")
			if err := lifecycle.VerifyOTP(bookingId, userId, body.OTP); err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified"})
		}).
		POST("/pay", func(ctx *gin.Context) {
			var body types.PayRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			userId := ctx.GetUint("id")
			subRole := types.SubRole(ctx.GetString("sub_role"))
			booking, err := lifecycle.Pay(bookingId, userId, subRole, body.PaymentType, *body.AmountPaid)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
		})

	canteen := meal.Group("")
	canteen.Use(middlewares.RequireRole(types.ROLE_CANTEEN))
	canteen.
		POST("/respond", func(ctx *gin.Context) {
			var body types.RespondRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			booking, err := lifecycle.Respond(bookingId, body.Action, body.Reason)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
		}).
		POST("/issue", func(ctx *gin.Context) {
			var body types.IssueRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			booking, err := lifecycle.IssueMeal(bookingId, *body.ConfirmedAmount)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
		}).
		POST("/reject-issue", func(ctx *gin.Context) {
			var body types.RejectIssueRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			bookingId, _ := uuid.Parse(body.BookingID)
			booking, err := lifecycle.RejectIssue(bookingId, body.Reason)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "data": booking})
		})

	return meal
}
