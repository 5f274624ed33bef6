package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spotmarket-backend/internal/model"
)

type createSpotRequest struct {
	OwnerID           int64           `json:"owner_id" binding:"required"`
	Latitude          *float64        `json:"latitude" binding:"required"`
	Longitude         *float64        `json:"longitude" binding:"required"`
	Floor             int             `json:"floor"`
	SpotNumber        string          `json:"spot_number"`
	HourlyPrice       decimal.Decimal `json:"hourly_price"`
	IsChargingStation bool            `json:"is_charging_station"`
	ChargerType       string          `json:"charger_type"`
}

// CreateSpot handles POST /api/spots: an owner lists a private spot on
// the market. Building-pool spots are provisioned administratively, not
// through this endpoint.
func (h *Handler) CreateSpot(c *gin.Context) {
	var req createSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if req.HourlyPrice.IsNegative() {
		abortBadRequest(c, "hourly_price must not be negative")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		abortBadRequest(c, "latitude/longitude out of range")
		return
	}

	if _, err := h.store.GetUser(c.Request.Context(), req.OwnerID); err != nil {
		abortWithError(c, err)
		return
	}

	spot := &model.ParkingSpot{
		SpotType:          model.SpotTypePrivate,
		OwnerID:           &req.OwnerID,
		Latitude:          *req.Latitude,
		Longitude:         *req.Longitude,
		Floor:             req.Floor,
		SpotNumber:        req.SpotNumber,
		HourlyPrice:       req.HourlyPrice,
		IsChargingStation: req.IsChargingStation,
		ChargerType:       req.ChargerType,
		IsActive:          true,
	}
	if err := h.store.CreateSpot(c.Request.Context(), spot); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSpotResponse(spot))
}

type addWindowRequest struct {
	StartDatetime time.Time `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time `json:"end_datetime" binding:"required"`
}

// AddSpotWindow handles POST /api/spots/{spot_id}/windows: the owner
// declares a window during which the spot may be booked. A window that
// overlaps a declared one is rejected with a 409.
func (h *Handler) AddSpotWindow(c *gin.Context) {
	spotID, err := strconv.ParseInt(c.Param("spot_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid spot ID")
		return
	}

	var req addWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if !req.EndDatetime.After(req.StartDatetime) {
		abortBadRequest(c, "end_datetime must be after start_datetime")
		return
	}

	w := &model.AvailabilityWindow{
		SpotID:  spotID,
		StartAt: req.StartDatetime.UTC(),
		EndAt:   req.EndDatetime.UTC(),
	}
	if err := h.store.AddAvailabilityWindow(c.Request.Context(), w); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             w.ID,
		"spot_id":        w.SpotID,
		"start_datetime": w.StartAt,
		"end_datetime":   w.EndAt,
	})
}

type spotResponse struct {
	SpotID            int64           `json:"spot_id"`
	SpotType          string          `json:"spot_type"`
	BuildingID        *int64          `json:"building_id,omitempty"`
	Floor             int             `json:"floor"`
	SpotNumber        string          `json:"spot_number"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	HourlyPrice       decimal.Decimal `json:"hourly_price"`
	IsChargingStation bool            `json:"is_charging_station"`
	ChargerType       string          `json:"charger_type,omitempty"`
	IsActive          bool            `json:"is_active"`
}

func toSpotResponse(s *model.ParkingSpot) spotResponse {
	return spotResponse{
		SpotID:            s.ID,
		SpotType:          string(s.SpotType),
		BuildingID:        s.BuildingID,
		Floor:             s.Floor,
		SpotNumber:        s.SpotNumber,
		Latitude:          s.Latitude,
		Longitude:         s.Longitude,
		HourlyPrice:       s.HourlyPrice,
		IsChargingStation: s.IsChargingStation,
		ChargerType:       s.ChargerType,
		IsActive:          s.IsActive,
	}
}

// GetSpot handles GET /api/spots/{spot_id}.
func (h *Handler) GetSpot(c *gin.Context) {
	spotID, err := strconv.ParseInt(c.Param("spot_id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "invalid spot ID")
		return
	}

	spot, err := h.store.GetSpot(c.Request.Context(), spotID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSpotResponse(spot))
}
