package service

import "math"

// earthRadiusM is the mean Earth radius in meters.
const earthRadiusM = 6371000.0

// HaversineMeters computes the great-circle distance in meters between two
// latitude/longitude points.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return c * earthRadiusM
}

// WithinRadius reports whether the claimed point lies within radiusM meters
// of the anchor, boundary inclusive. The computed distance is always
// returned so rejections can report it.
func WithinRadius(claimedLat, claimedLon, anchorLat, anchorLon, radiusM float64) (bool, float64) {
	distance := HaversineMeters(claimedLat, claimedLon, anchorLat, anchorLon)
	return distance <= radiusM, distance
}
