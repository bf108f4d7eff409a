// Package geo provides the GPS sample filter and the geofence travel
// detector that turn a noisy location stream into travel segments.
package geo

import (
	"math"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// earthRadiusMeters is the mean Earth radius used by the haversine
// formula. The filter and the detector must agree on this value so
// their thresholds are comparable.
const earthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance in meters
// between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// DistanceBetween returns the haversine distance in meters between two
// recorded locations.
func DistanceBetween(a, b shift.Location) float64 {
	return Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
