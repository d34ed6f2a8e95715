package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMetersZeroDistance(t *testing.T) {
	assert.Zero(t, HaversineMeters(13.0827, 80.2707, 13.0827, 80.2707))
}

func TestHaversineMetersKnownDistance(t *testing.T) {
	// One degree of latitude spans roughly 111.2 km.
	d := HaversineMeters(13.0, 80.0, 14.0, 80.0)
	assert.InDelta(t, 111195, d, 100)
}

func TestHaversineMetersSymmetry(t *testing.T) {
	a := HaversineMeters(13.0827, 80.2707, 13.0850, 80.2750)
	b := HaversineMeters(13.0850, 80.2750, 13.0827, 80.2707)
	assert.InDelta(t, a, b, 1e-9)
}

func TestWithinRadiusInside(t *testing.T) {
	// ~50m offset from the anchor, accepted at 100m.
	within, distance := WithinRadius(13.08315, 80.2707, 13.0827, 80.2707, 100)
	assert.True(t, within)
	assert.Greater(t, distance, 0.0)
	assert.Less(t, distance, 100.0)
}

func TestWithinRadiusOutside(t *testing.T) {
	within, distance := WithinRadius(13.0927, 80.2707, 13.0827, 80.2707, 100)
	assert.False(t, within)
	assert.Greater(t, distance, 100.0)
}

func TestWithinRadiusBoundaryInclusive(t *testing.T) {
	// Using the computed distance as the radius makes the boundary exact.
	distance := HaversineMeters(13.0837, 80.2717, 13.0827, 80.2707)
	within, got := WithinRadius(13.0837, 80.2717, 13.0827, 80.2707, distance)
	assert.True(t, within)
	assert.Equal(t, distance, got)
}
