package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/model"
)

type createBookingRequest struct {
	UserID        int64           `json:"user_id" binding:"required"`
	SpotID        int64           `json:"spot_id" binding:"required"`
	BookingType   string          `json:"booking_type" binding:"required,oneof=parking charging"`
	StartDatetime time.Time       `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time       `json:"end_datetime" binding:"required"`
	BaseRate      decimal.Decimal `json:"base_rate"`
}

// bookingResponse is the wire representation of a booking.
type bookingResponse struct {
	ID            string          `json:"id"`
	SpotID        int64           `json:"spot_id"`
	UserID        int64           `json:"user_id"`
	BookingType   string          `json:"booking_type"`
	StartDatetime time.Time       `json:"start_datetime"`
	EndDatetime   time.Time       `json:"end_datetime"`
	ActualEnd     *time.Time      `json:"actual_end,omitempty"`
	Status        string          `json:"status"`
	BaseRate      decimal.Decimal `json:"base_rate"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	PaymentStatus string          `json:"payment_status"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		SpotID:        b.SpotID,
		UserID:        b.UserID,
		BookingType:   string(b.BookingType),
		StartDatetime: b.StartAt,
		EndDatetime:   b.EndAt,
		ActualEnd:     b.ActualEndAt,
		Status:        string(b.Status),
		BaseRate:      b.BaseRate,
		FinalAmount:   b.FinalAmount,
		PaymentStatus: string(b.PaymentStatus),
	}
}

// CreateBooking handles POST /api/bookings. A lost race for the slot is a
// 409 the client can react to by re-searching.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	baseRate := req.BaseRate
	if baseRate.IsZero() {
		// Default to the spot's listed price.
		spot, err := h.store.GetSpot(c.Request.Context(), req.SpotID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		baseRate = spot.HourlyPrice
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateInput{
		SpotID:      req.SpotID,
		UserID:      req.UserID,
		BookingType: model.BookingType(req.BookingType),
		StartAt:     req.StartDatetime,
		EndAt:       req.EndDatetime,
		BaseRate:    baseRate,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetBookings handles GET /api/bookings?user_id= — the booking history
// listing, with lazy expiry folded in.
func (h *Handler) GetBookings(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "user_id is required")
		return
	}

	bookings, err := h.bookings.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": responses})
}

// EndBooking handles POST /api/bookings/{booking_id}/end: explicit "end
// parking now", recording the actual end time and the settlement amount.
func (h *Handler) EndBooking(c *gin.Context) {
	b, err := h.bookings.End(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	// Ending a building booking frees pool capacity for the waitlist.
	if b.Spot.SpotType == model.SpotTypeBuilding {
		h.notifyRelease(b.Spot.BuildingID)
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// CancelBooking handles POST /api/bookings/{booking_id}/cancel. Permitted
// only while more than the cancellation lead time remains before start.
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.bookings.Cancel(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if b.Spot.SpotType == model.SpotTypeBuilding {
		h.notifyRelease(b.Spot.BuildingID)
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// ConfirmBookingPayment handles POST /api/bookings/{booking_id}/payment/confirm.
func (h *Handler) ConfirmBookingPayment(c *gin.Context) {
	b, err := h.bookings.ConfirmPayment(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetPaymentDue handles GET /api/users/{user_id}/payment-due: the poll
// the client uses to enforce the post-completion payment gate.
func (h *Handler) GetPaymentDue(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid user ID")
		return
	}

	due, err := h.bookings.PaymentDue(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]bookingResponse, 0, len(due))
	for i := range due {
		responses = append(responses, toBookingResponse(&due[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payment_due": responses, "blocked": len(responses) > 0})
}
