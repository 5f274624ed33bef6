package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"spotmarket-backend/internal/alloc"
	"spotmarket-backend/internal/parse"
)

type allocateRequest struct {
	UserID          int64     `json:"user_id" binding:"required"`
	StartDatetime   time.Time `json:"start_datetime" binding:"required"`
	EndDatetime     time.Time `json:"end_datetime" binding:"required"`
	Timezone        string    `json:"timezone"`
	ConfirmWaitlist bool      `json:"confirm_waitlist"`
}

// AllocateBuildingSpot handles POST /api/buildings/{building_id}/allocate.
//
// The response status field is four-way and callers must branch on it:
//   - "success": a spot was assigned and a pending booking created.
//   - "no_spot_today": nothing free for a same-day request; the caller
//     should offer the waitlist with immediate-release framing, then the
//     private market.
//   - "no_spot_future": nothing free for a future date; the caller should
//     offer the waitlist resolved by the periodic sweep.
//   - "accepted": the requester confirmed the waitlist; the entry was
//     recorded and the private-market fallback ordering is advised.
func (h *Handler) AllocateBuildingSpot(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("building_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid building ID")
		return
	}

	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if !req.EndDatetime.After(req.StartDatetime) {
		abortBadRequest(c, "end_datetime must be after start_datetime")
		return
	}

	loc, err := parse.Location(req.Timezone)
	if err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	out, err := h.allocator.Allocate(c.Request.Context(), alloc.Request{
		BuildingID:        buildingID,
		UserID:            req.UserID,
		StartAt:           req.StartDatetime.UTC(),
		EndAt:             req.EndDatetime.UTC(),
		Location:          loc,
		WaitlistConfirmed: req.ConfirmWaitlist,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	switch out.Kind {
	case alloc.Assigned:
		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"spot": gin.H{
				"spot_id":     out.Spot.ID,
				"floor":       out.Spot.Floor,
				"spot_number": out.Spot.SpotNumber,
			},
			"booking": toBookingResponse(out.Booking),
		})
	case alloc.NoSpotToday:
		c.JSON(http.StatusOK, gin.H{
			"status":           "no_spot_today",
			"waitlist_offer":   "immediate",
			"fallback_private": true,
		})
	case alloc.NoSpotFuture:
		c.JSON(http.StatusOK, gin.H{
			"status":           "no_spot_future",
			"waitlist_offer":   "deferred",
			"fallback_private": false,
		})
	case alloc.AcceptedFallback:
		entry, _, err := h.coordinator.Join(c.Request.Context(),
			req.UserID, buildingID, req.StartDatetime.UTC(), req.EndDatetime.UTC())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":           "accepted",
			"waitlist_entry":   toWaitlistResponse(entry),
			"fallback_private": out.PrivateFirst,
		})
	}
}
