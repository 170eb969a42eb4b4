package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(12.97, 77.59, 12.97, 77.59), 1e-6)
	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, Distance(0, 0, 1, 0), 100)
}

func TestBoundingBox(t *testing.T) {
	minLat, maxLat, minLon, maxLon := BoundingBox(12.97, 77.59, 5000)
	assert.Less(t, minLat, 12.97)
	assert.Greater(t, maxLat, 12.97)
	assert.Less(t, minLon, 77.59)
	assert.Greater(t, maxLon, 77.59)

	// A point 5 km north sits inside the box.
	assert.InDelta(t, 5000, Distance(12.97, 77.59, maxLat, 77.59), 1)
}

func TestMapsURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=12.9716,77.5946", MapsURL(12.9716, 77.5946))
}
