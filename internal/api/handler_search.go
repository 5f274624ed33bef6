package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spotmarket-backend/internal/parse"
	"spotmarket-backend/internal/score"
	"spotmarket-backend/internal/search"
)

type searchRequest struct {
	UserID int64 `json:"user_id" binding:"required"`

	// Pointers keep zero a valid coordinate; binding:"required" on a plain
	// float64 would reject the equator and the prime meridian as missing.
	Latitude          *float64        `json:"latitude" binding:"required"`
	Longitude         *float64        `json:"longitude" binding:"required"`
	Date              string          `json:"date" binding:"required"`
	StartTime         string          `json:"startTime" binding:"required"`
	EndTime           string          `json:"endTime" binding:"required"`
	Timezone          string          `json:"timezone"`
	MaxPrice          decimal.Decimal `json:"maxPrice"`
	IsChargingStation bool            `json:"is_charging_station"`
	ChargerType       string          `json:"charger_type"`
	RadiusKm          float64         `json:"radius_km"`
	Limit             int             `json:"limit"`
}

// searchResultSpot is the flattened structure for one ranked result.
type searchResultSpot struct {
	SpotID               int64           `json:"spot_id"`
	Latitude             float64         `json:"latitude"`
	Longitude            float64         `json:"longitude"`
	Floor                int             `json:"floor"`
	SpotNumber           string          `json:"spot_number"`
	HourlyPrice          decimal.Decimal `json:"hourly_price"`
	IsChargingStation    bool            `json:"is_charging_station"`
	ChargerType          string          `json:"charger_type,omitempty"`
	DistanceKm           float64         `json:"distance"`
	Score                float64         `json:"score"`
	IsAvailableForWindow bool            `json:"is_available_for_window"`
}

// SearchSpots handles the POST /api/spots/search request: the private
// market search, ordered best-first. An empty list is a valid no-match
// outcome, never an error.
func (h *Handler) SearchSpots(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		abortBadRequest(c, "latitude/longitude out of range")
		return
	}

	start, end, err := parse.Window(req.Date, req.StartTime, req.EndTime, req.Timezone)
	if err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	// A user with unpaid completed bookings is blocked from searching
	// until payment is confirmed.
	if err := h.bookings.CheckPaymentGate(c.Request.Context(), req.UserID); err != nil {
		abortWithError(c, err)
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	candidates, err := h.finder.Search(c.Request.Context(), search.Query{
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		StartAt:      start,
		EndAt:        end,
		MaxPrice:     req.MaxPrice,
		ChargingOnly: req.IsChargingStation,
		ChargerType:  req.ChargerType,
		RadiusKm:     req.RadiusKm,
		Limit:        req.Limit,
		Weights:      score.Weights{Distance: user.DistanceWeight, Price: user.PriceWeight},
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]searchResultSpot, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, searchResultSpot{
			SpotID:               cand.Spot.ID,
			Latitude:             cand.Spot.Latitude,
			Longitude:            cand.Spot.Longitude,
			Floor:                cand.Spot.Floor,
			SpotNumber:           cand.Spot.SpotNumber,
			HourlyPrice:          cand.Spot.HourlyPrice,
			IsChargingStation:    cand.Spot.IsChargingStation,
			ChargerType:          cand.Spot.ChargerType,
			DistanceKm:           cand.DistanceKm,
			Score:                cand.Score,
			IsAvailableForWindow: true, // the pipeline filtered out everything else
		})
	}

	c.JSON(http.StatusOK, gin.H{"parkingSpots": results})
}
