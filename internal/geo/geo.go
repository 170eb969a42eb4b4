package geo

import (
	"fmt"
	"math"
	"strconv"
)

const earthRadiusMeters = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the great-circle distance in meters (haversine).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundingBox returns a lat/lon rectangle containing every point within radius meters.
func BoundingBox(lat, lon, radius float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radius / earthRadiusMeters * 180 / math.Pi
	minLat, maxLat = lat-dLat, lat+dLat

	cos := math.Cos(radians(lat))
	if cos < 1e-6 {
		return minLat, maxLat, -180, 180
	}
	dLon := dLat / cos
	return minLat, maxLat, lon - dLon, lon + dLon
}

// MapsURL links to the coordinates on Google Maps.
func MapsURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}
