package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spotmarket-backend/internal/model"
)

// BuildingResponse represents the API response for a single building.
type BuildingResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	TotalSpots int64  `json:"totalSpots"`
}

// GetBuildings handles the GET /api/buildings request.
func (h *Handler) GetBuildings(c *gin.Context) {
	buildings, err := h.store.ListBuildings(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	// One aggregate pass for the pool sizes.
	type aggRow struct {
		BuildingID int64
		TotalSpots int64
	}
	var aggs []aggRow
	err = h.store.DB().WithContext(c.Request.Context()).
		Model(&model.ParkingSpot{}).
		Select("building_id as building_id, COUNT(*) as total_spots").
		Where("spot_type = ? AND is_active = ?", model.SpotTypeBuilding, true).
		Group("building_id").
		Scan(&aggs).Error
	if err != nil {
		abortWithError(c, err)
		return
	}

	aggMap := make(map[int64]aggRow, len(aggs))
	for _, a := range aggs {
		aggMap[a.BuildingID] = a
	}

	responses := make([]BuildingResponse, 0, len(buildings))
	for _, b := range buildings {
		responses = append(responses, BuildingResponse{
			ID:         b.ID,
			Name:       b.Name,
			Code:       b.Code,
			TotalSpots: aggMap[b.ID].TotalSpots,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetBuildingSpots handles GET /api/buildings/{building_id}/spots.
func (h *Handler) GetBuildingSpots(c *gin.Context) {
	buildingID, err := strconv.ParseInt(c.Param("building_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid building ID")
		return
	}

	if _, err := h.store.GetBuilding(c.Request.Context(), buildingID); err != nil {
		abortWithError(c, err)
		return
	}

	spots, err := h.store.BuildingSpots(c.Request.Context(), buildingID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]spotResponse, 0, len(spots))
	for i := range spots {
		responses = append(responses, toSpotResponse(&spots[i]))
	}
	c.JSON(http.StatusOK, responses)
}
