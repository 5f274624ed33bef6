package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// WGS84 coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox returns a latitude/longitude box that fully contains the
// circle of radiusKm around the given point. It is a coarse prefilter;
// callers still cut on the exact haversine distance.
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusKm / 111.0 // ~111 km per degree of latitude
	minLat, maxLat = lat-latDelta, lat+latDelta

	// Longitude degrees shrink with latitude; guard the poles.
	lngScale := math.Cos(toRadians(lat))
	if lngScale < 0.01 {
		lngScale = 0.01
	}
	lngDelta := radiusKm / (111.0 * lngScale)
	minLng, maxLng = lng-lngDelta, lng+lngDelta
	return minLat, maxLat, minLng, maxLng
}
