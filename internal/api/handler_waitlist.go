package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"spotmarket-backend/internal/model"
)

type joinWaitlistRequest struct {
	UserID        int64     `json:"user_id" binding:"required"`
	BuildingID    int64     `json:"building_id" binding:"required"`
	StartDatetime time.Time `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time `json:"end_datetime" binding:"required"`
}

type waitlistResponse struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	BuildingID    int64     `json:"building_id"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Status        string    `json:"status"`
	AssignedSpot  *int64    `json:"assigned_spot,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toWaitlistResponse(e *model.WaitlistEntry) waitlistResponse {
	return waitlistResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		BuildingID:    e.BuildingID,
		StartDatetime: e.StartAt,
		EndDatetime:   e.EndAt,
		Status:        string(e.Status),
		AssignedSpot:  e.AssignedSpotID,
		CreatedAt:     e.CreatedAt,
	}
}

// JoinWaitlist handles POST /api/waitlist. Joining is idempotent per
// (user, building, window): a duplicate join returns the existing entry
// with a 200 instead of creating a second one.
func (h *Handler) JoinWaitlist(c *gin.Context) {
	var req joinWaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if !req.EndDatetime.After(req.StartDatetime) {
		abortBadRequest(c, "end_datetime must be after start_datetime")
		return
	}

	entry, created, err := h.coordinator.Join(c.Request.Context(),
		req.UserID, req.BuildingID, req.StartDatetime, req.EndDatetime)
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toWaitlistResponse(entry))
}

// GetWaitlist handles GET /api/waitlist?user_id=.
func (h *Handler) GetWaitlist(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "user_id is required")
		return
	}

	entries, err := h.coordinator.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]waitlistResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, toWaitlistResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"waitlist": responses})
}
