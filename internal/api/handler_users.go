package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type preferencesRequest struct {
	DistanceImportance int `json:"distance_importance" binding:"required,min=1,max=5"`
	PriceImportance    int `json:"price_importance" binding:"required,min=1,max=5"`
}

type preferencesResponse struct {
	UserID             int64 `json:"user_id"`
	DistanceImportance int   `json:"distance_importance"`
	PriceImportance    int   `json:"price_importance"`
}

// GetPreferences handles GET /api/users/{user_id}/preferences.
func (h *Handler) GetPreferences(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid user ID")
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, preferencesResponse{
		UserID:             user.ID,
		DistanceImportance: user.DistanceWeight,
		PriceImportance:    user.PriceWeight,
	})
}

// PutPreferences handles PUT /api/users/{user_id}/preferences. The
// weights only feed the scorer; they never mutate spots or bookings.
func (h *Handler) PutPreferences(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid user ID")
		return
	}

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	user, err := h.store.UpdateUserWeights(c.Request.Context(), userID, req.DistanceImportance, req.PriceImportance)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, preferencesResponse{
		UserID:             user.ID,
		DistanceImportance: user.DistanceWeight,
		PriceImportance:    user.PriceWeight,
	})
}
