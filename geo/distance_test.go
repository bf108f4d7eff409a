package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trackdog111/timetrack-nz-sub001/geo"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

func TestDistance_ZeroForSamePoint(t *testing.T) {
	assert.Zero(t, geo.Distance(-36.8485, 174.7633, -36.8485, 174.7633))
}

func TestDistance_OneDegreeOfLatitude(t *testing.T) {
	// One degree of latitude is ~111.19 km on the 6371 km sphere.
	d := geo.Distance(-36, 174, -37, 174)
	assert.InDelta(t, 111195, d, 50)
}

func TestDistance_SmallOffsets(t *testing.T) {
	// 0.001 degrees of latitude is ~111 m; the geofence thresholds live
	// in this range.
	d := geo.Distance(-36.8485, 174.7633, -36.8475, 174.7633)
	assert.InDelta(t, 111.2, d, 1)
}

func TestDistance_Symmetric(t *testing.T) {
	a := geo.Distance(-36.8485, 174.7633, -41.2866, 174.7756)
	b := geo.Distance(-41.2866, 174.7756, -36.8485, 174.7633)
	assert.InDelta(t, a, b, 1e-6)
}

func TestDistanceBetween(t *testing.T) {
	a := shift.Location{Latitude: -36.8485, Longitude: 174.7633}
	b := shift.Location{Latitude: -36.8475, Longitude: 174.7633}
	assert.InDelta(t, geo.Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude),
		geo.DistanceBetween(a, b), 1e-9)
}
