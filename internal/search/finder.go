// Package search implements the private-market spot finder: hard filters
// first, then preference-weighted ranking of the survivors.
package search

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spotmarket-backend/config"
	"spotmarket-backend/internal/geo"
	"spotmarket-backend/internal/model"
	"spotmarket-backend/internal/score"
	"spotmarket-backend/internal/store"
)

// Query describes one private-market search.
type Query struct {
	Latitude  float64
	Longitude float64
	// Requested window, UTC.
	StartAt time.Time
	EndAt   time.Time

	MaxPrice     decimal.Decimal
	ChargingOnly bool
	ChargerType  string

	// RadiusKm and Limit fall back to the configured defaults when zero.
	RadiusKm float64
	Limit    int

	Weights score.Weights
}

// Candidate is one ranked search result. Distance and price scores are
// normalized over the result set; Score combines them, lower is better.
type Candidate struct {
	Spot       model.ParkingSpot
	DistanceKm float64
	DistScore  float64
	PriceScore float64
	Score      float64
}

// Finder queries, filters and ranks private spots.
type Finder struct {
	store store.Store
	cfg   config.SearchConfig
}

// NewFinder creates a finder with the configured search defaults.
func NewFinder(s store.Store, cfg config.SearchConfig) *Finder {
	return &Finder{store: s, cfg: cfg}
}

// Search runs the filtering pipeline and returns candidates best-first.
// An empty result is a valid no-match outcome, not an error.
func (f *Finder) Search(ctx context.Context, q Query) ([]Candidate, error) {
	radius := q.RadiusKm
	if radius <= 0 {
		radius = f.cfg.DefaultRadiusKm
	}
	limit := q.Limit
	if limit <= 0 || limit > f.cfg.MaxResults {
		limit = f.cfg.MaxResults
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(q.Latitude, q.Longitude, radius)
	spots, err := f.store.PrivateSpotCandidates(ctx, store.CandidateFilter{
		MinLat: minLat, MaxLat: maxLat,
		MinLng: minLng, MaxLng: maxLng,
		ChargingOnly: q.ChargingOnly,
		ChargerType:  q.ChargerType,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(spots))
	for _, spot := range spots {
		// The bounding box is coarse; cut on the exact distance.
		distance := geo.HaversineKm(q.Latitude, q.Longitude, spot.Latitude, spot.Longitude)
		if distance > radius {
			continue
		}
		if q.MaxPrice.IsPositive() && spot.HourlyPrice.GreaterThan(q.MaxPrice) {
			continue
		}

		free, err := f.store.SpotFreeForWindow(ctx, spot.ID, q.StartAt, q.EndAt)
		if err != nil {
			return nil, err
		}
		if !free {
			continue
		}

		candidates = append(candidates, Candidate{Spot: spot, DistanceKm: distance})
	}

	rank(candidates, q.Weights)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// rank scores the candidates in place and stable-sorts them ascending by
// overall score, so equal scores keep their query order and re-ranking
// the same inputs always yields the same order.
func rank(candidates []Candidate, w score.Weights) {
	if len(candidates) == 0 {
		return
	}

	distances := make([]float64, len(candidates))
	prices := make([]float64, len(candidates))
	for i, c := range candidates {
		distances[i] = c.DistanceKm
		prices[i], _ = c.Spot.HourlyPrice.Float64()
	}

	w = w.Clamp()
	distScores := score.Normalize(distances)
	priceScores := score.Normalize(prices)
	for i := range candidates {
		candidates[i].DistScore = distScores[i]
		candidates[i].PriceScore = priceScores[i]
		candidates[i].Score = score.Overall(distScores[i], priceScores[i], w)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
}
